package storage

import (
	"context"
	"sync"
)

// Memory keeps collections in process. Local writes do not echo back as
// change events; Emit delivers an arbitrary ChangeEvent to subscribers,
// duplicates included, standing in for a remote stream in tests.
type Memory struct {
	mu   sync.Mutex
	cols map[string]map[string]Record
	subs map[string][]func(ChangeEvent)

	FailPuts bool // when set, Put and Delete return ErrUnavailable
}

type memoryErr string

func (e memoryErr) Error() string { return string(e) }

const ErrUnavailable = memoryErr("storage: unavailable")

func NewMemory() *Memory {
	return &Memory{
		cols: map[string]map[string]Record{},
		subs: map[string][]func(ChangeEvent){},
	}
}

func (m *Memory) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.cols[collection]))
	for _, rec := range m.cols[collection] {
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory) Put(ctx context.Context, collection string, rec Record) error {
	m.mu.Lock()
	if m.FailPuts {
		m.mu.Unlock()
		return ErrUnavailable
	}
	col, ok := m.cols[collection]
	if !ok {
		col = map[string]Record{}
		m.cols[collection] = col
	}
	col[rec.ID] = rec
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if m.FailPuts {
		m.mu.Unlock()
		return ErrUnavailable
	}
	delete(m.cols[collection], id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, fn func(ChangeEvent)) error {
	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], fn)
	m.mu.Unlock()
	return nil
}

// Emit pushes an event to subscribers without touching stored state.
func (m *Memory) Emit(ev ChangeEvent) {
	m.mu.Lock()
	fns := append([]func(ChangeEvent){}, m.subs[ev.Collection]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
