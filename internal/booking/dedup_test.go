package booking

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

func unitRecord(t *testing.T, u Unit) storage.Record {
	t.Helper()
	data, err := json.Marshal(u)
	require.NoError(t, err)
	return storage.Record{ID: u.ID, Data: data}
}

func testUnit(id, name string) Unit {
	now := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	return Unit{ID: id, Name: name, Capacity: 2, CreatedAt: now, ModifiedAt: now}
}

func TestDuplicateChangeEventsMaterializeOnce(t *testing.T) {
	s, mem, sink := newTestStore(t)

	ev := storage.ChangeEvent{
		Kind:       storage.ChangeAdded,
		Collection: storage.Units,
		Record:     unitRecord(t, testUnit("u1", "Studio")),
	}
	before := sink.units.Load()
	mem.Emit(ev)
	mem.Emit(ev)
	mem.Emit(ev)

	require.Len(t, s.Units(), 1)
	// First delivery notifies; replays are absorbed silently.
	require.Equal(t, before+1, sink.units.Load())
}

func TestModifiedAndRemovedEvents(t *testing.T) {
	s, mem, _ := newTestStore(t)

	mem.Emit(storage.ChangeEvent{
		Kind: storage.ChangeAdded, Collection: storage.Units,
		Record: unitRecord(t, testUnit("u1", "Studio")),
	})
	mem.Emit(storage.ChangeEvent{
		Kind: storage.ChangeModified, Collection: storage.Units,
		Record: unitRecord(t, testUnit("u1", "Studio Renamed")),
	})
	us := s.Units()
	require.Len(t, us, 1)
	require.Equal(t, "Studio Renamed", us[0].Name)

	mem.Emit(storage.ChangeEvent{
		Kind: storage.ChangeRemoved, Collection: storage.Units,
		Record: storage.Record{ID: "u1"},
	})
	require.Empty(t, s.Units())

	// Removing what is already gone is a no-op.
	mem.Emit(storage.ChangeEvent{
		Kind: storage.ChangeRemoved, Collection: storage.Units,
		Record: storage.Record{ID: "u1"},
	})
	require.Empty(t, s.Units())
}

func TestUndecodableEventIsDropped(t *testing.T) {
	s, mem, _ := newTestStore(t)

	mem.Emit(storage.ChangeEvent{
		Kind: storage.ChangeAdded, Collection: storage.Units,
		Record: storage.Record{ID: "bad", Data: json.RawMessage(`{"capacity":"two"`)},
	})
	require.Empty(t, s.Units())
}

// scriptedProvider serves canned records and records every write.
type scriptedProvider struct {
	mu      sync.Mutex
	records map[string][]storage.Record
	puts    []string
}

func (p *scriptedProvider) LoadAll(ctx context.Context, collection string) ([]storage.Record, error) {
	return p.records[collection], nil
}

func (p *scriptedProvider) Put(ctx context.Context, collection string, rec storage.Record) error {
	p.mu.Lock()
	p.puts = append(p.puts, collection+"/"+rec.ID)
	p.mu.Unlock()
	return nil
}

func (p *scriptedProvider) Delete(ctx context.Context, collection, id string) error { return nil }

func TestResyncCollapsesDuplicateRecords(t *testing.T) {
	first := testUnit("u1", "Old Name")
	second := testUnit("u1", "New Name")
	firstData, _ := json.Marshal(first)
	secondData, _ := json.Marshal(second)

	p := &scriptedProvider{records: map[string][]storage.Record{
		storage.Units: {
			{ID: "u1", Data: firstData},
			{ID: "u1", Data: secondData},
		},
	}}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	s := NewStore(p, nil, log)
	require.NoError(t, s.Resync(context.Background()))

	us := s.Units()
	require.Len(t, us, 1)
	require.Equal(t, "New Name", us[0].Name, "keep-last wins")

	// The corrected set is persisted back.
	p.mu.Lock()
	defer p.mu.Unlock()
	require.Contains(t, p.puts, "units/u1")
}

func TestResyncRecordKeyOverridesBodyID(t *testing.T) {
	stale, _ := json.Marshal(testUnit("stale", "Studio"))
	noID, _ := json.Marshal(map[string]any{"name": "Loft", "capacity": 4})

	p := &scriptedProvider{records: map[string][]storage.Record{
		storage.Units: {
			{ID: "u1", Data: stale},
			{ID: "u2", Data: noID},
		},
	}}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	s := NewStore(p, nil, log)
	require.NoError(t, s.Resync(context.Background()))

	ids := make([]string, 0)
	for _, u := range s.Units() {
		ids = append(ids, u.ID)
	}
	require.ElementsMatch(t, []string{"u1", "u2"}, ids, "the record key is authoritative")
}

// resyncHookProvider injects a change event in the middle of a resync, after
// units are loaded but before the loaded state commits.
type resyncHookProvider struct {
	scriptedProvider
	during func()
}

func (p *resyncHookProvider) LoadAll(ctx context.Context, collection string) ([]storage.Record, error) {
	if collection == storage.Reservations && p.during != nil {
		p.during()
	}
	return p.records[collection], nil
}

func TestChangeEventsSuppressedDuringResync(t *testing.T) {
	data, _ := json.Marshal(testUnit("u1", "Studio"))
	p := &resyncHookProvider{scriptedProvider: scriptedProvider{records: map[string][]storage.Record{
		storage.Units: {{ID: "u1", Data: data}},
	}}}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	s := NewStore(p, nil, log)

	ghost := storage.ChangeEvent{
		Kind: storage.ChangeAdded, Collection: storage.Units,
		Record: unitRecord(t, testUnit("ghost", "Should Not Appear")),
	}
	p.during = func() { s.applyChange(ghost) }

	require.NoError(t, s.Resync(context.Background()))

	ids := make([]string, 0)
	for _, u := range s.Units() {
		ids = append(ids, u.ID)
	}
	require.Equal(t, []string{"u1"}, ids, "mid-resync event must be dropped")

	// Once the suppression window closes, events apply again.
	s.applyChange(ghost)
	require.Len(t, s.Units(), 2)
}
