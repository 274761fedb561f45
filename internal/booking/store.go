package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

// Store owns the unit and reservation collections and is their only
// permitted mutator. Canonical in-memory representation is a map keyed by
// id, which makes materializing the same (id, record) pair twice a no-op.
// Every mutation validates against the in-memory snapshot and persists
// before committing, all under one lock, so a rejected mutation never
// partially persists.
type Store struct {
	provider storage.Provider
	sink     Sink
	log      *logrus.Logger

	mu           sync.Mutex
	units        map[string]Unit
	reservations map[string]Reservation
	syncing      bool
}

func NewStore(provider storage.Provider, sink Sink, log *logrus.Logger) *Store {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		provider:     provider,
		sink:         sink,
		log:          log,
		units:        map[string]Unit{},
		reservations: map[string]Reservation{},
	}
}

// Start resyncs from the provider and, when the provider pushes change
// events, subscribes to both collections.
func (s *Store) Start(ctx context.Context) error {
	if err := s.Resync(ctx); err != nil {
		return err
	}
	w, ok := s.provider.(storage.Watcher)
	if !ok {
		return nil
	}
	if err := w.Subscribe(ctx, storage.Units, s.applyChange); err != nil {
		return &PersistenceError{Op: "subscribe units", Err: err}
	}
	if err := w.Subscribe(ctx, storage.Reservations, s.applyChange); err != nil {
		return &PersistenceError{Op: "subscribe reservations", Err: err}
	}
	return nil
}

// Resync replaces both collections from the provider. Change events are
// suppressed from before the bulk read until after the loaded state and any
// corrective writes are committed, so the stream cannot re-apply records the
// resync is about to overwrite.
func (s *Store) Resync(ctx context.Context) error {
	s.mu.Lock()
	s.syncing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	units, dupUnits, err := loadCollection[Unit, *Unit](ctx, s.provider, storage.Units, s.log)
	if err != nil {
		return err
	}
	reservations, dupReservations, err := loadCollection[Reservation, *Reservation](ctx, s.provider, storage.Reservations, s.log)
	if err != nil {
		return err
	}

	// Duplicate ids from the provider are a recoverable anomaly: collapse
	// keep-last and persist the corrected set.
	for _, id := range dupUnits {
		if err := s.putRecord(ctx, storage.Units, id, units[id]); err != nil {
			return err
		}
	}
	for _, id := range dupReservations {
		if err := s.putRecord(ctx, storage.Reservations, id, reservations[id]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.units = units
	s.reservations = reservations
	s.mu.Unlock()

	s.sink.UnitsChanged()
	s.sink.ReservationsChanged()
	return nil
}

func loadCollection[T any, P interface {
	*T
	setID(string)
}](ctx context.Context, p storage.Provider, collection string, log *logrus.Logger) (map[string]T, []string, error) {
	recs, err := p.LoadAll(ctx, collection)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "load " + collection, Err: err}
	}
	out := make(map[string]T, len(recs))
	var dups []string
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			log.WithError(err).Warnf("skipping undecodable %s record %s", collection, rec.ID)
			continue
		}
		P(&v).setID(rec.ID)
		if _, seen := out[rec.ID]; seen {
			log.Warnf("duplicate %s record %s collapsed (keep-last)", collection, rec.ID)
			dups = append(dups, rec.ID)
		}
		out[rec.ID] = v
	}
	return out, dups, nil
}

// applyChange materializes one change event from the provider's stream.
// Events are dropped while a resync is in flight.
func (s *Store) applyChange(ev storage.ChangeEvent) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return
	}

	changed := false
	switch ev.Collection {
	case storage.Units:
		if ev.Kind == storage.ChangeRemoved {
			if _, ok := s.units[ev.Record.ID]; ok {
				delete(s.units, ev.Record.ID)
				changed = true
			}
			break
		}
		var u Unit
		if err := json.Unmarshal(ev.Record.Data, &u); err != nil {
			s.log.WithError(err).Warnf("dropping undecodable unit event %s", ev.Record.ID)
			break
		}
		u.ID = ev.Record.ID
		if s.sameStored(s.units[u.ID], ev.Record.Data, u.ID, storage.Units) {
			break
		}
		s.units[u.ID] = u
		changed = true
	case storage.Reservations:
		if ev.Kind == storage.ChangeRemoved {
			if _, ok := s.reservations[ev.Record.ID]; ok {
				delete(s.reservations, ev.Record.ID)
				changed = true
			}
			break
		}
		var r Reservation
		if err := json.Unmarshal(ev.Record.Data, &r); err != nil {
			s.log.WithError(err).Warnf("dropping undecodable reservation event %s", ev.Record.ID)
			break
		}
		r.ID = ev.Record.ID
		if s.sameStored(s.reservations[r.ID], ev.Record.Data, r.ID, storage.Reservations) {
			break
		}
		s.reservations[r.ID] = r
		changed = true
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	switch ev.Collection {
	case storage.Units:
		s.sink.UnitsChanged()
	case storage.Reservations:
		s.sink.ReservationsChanged()
	}
}

// sameStored reports whether the incoming record body matches what is
// already materialized, i.e. a duplicate delivery. Caller holds the lock.
func (s *Store) sameStored(current any, incoming json.RawMessage, id, collection string) bool {
	b, err := json.Marshal(current)
	if err != nil || !bytes.Equal(b, incoming) {
		return false
	}
	s.log.Debugf("duplicate %s event %s ignored", collection, id)
	return true
}

// ---- unit operations ----

// Units returns all units ordered by creation time.
func (s *Store) Units() []Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Unit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sortUnits(out)
	return out
}

func (s *Store) UnitByID(id string) (Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	return u, ok
}

func (s *Store) CreateUnit(ctx context.Context, in UnitInput) (Unit, error) {
	if err := validateUnitInput(&in); err != nil {
		return Unit{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	u := Unit{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Capacity:    in.Capacity,
		Description: in.Description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	s.mu.Lock()
	if err := s.putRecord(ctx, storage.Units, u.ID, u); err != nil {
		s.mu.Unlock()
		return Unit{}, err
	}
	s.units[u.ID] = u
	s.mu.Unlock()

	s.sink.UnitsChanged()
	return u, nil
}

func (s *Store) UpdateUnit(ctx context.Context, id string, in UnitInput) (Unit, error) {
	if err := validateUnitInput(&in); err != nil {
		return Unit{}, err
	}

	s.mu.Lock()
	cur, ok := s.units[id]
	if !ok {
		s.mu.Unlock()
		return Unit{}, &NotFoundError{Collection: storage.Units, ID: id}
	}
	next := cur
	next.Name = in.Name
	next.Capacity = in.Capacity
	next.Description = in.Description
	next.ModifiedAt = time.Now().UTC().Truncate(time.Second)
	if err := s.putRecord(ctx, storage.Units, id, next); err != nil {
		s.mu.Unlock()
		return Unit{}, err
	}
	s.units[id] = next
	s.mu.Unlock()

	s.sink.UnitsChanged()
	return next, nil
}

func (s *Store) DeleteUnit(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.units[id]; !ok {
		s.mu.Unlock()
		return &NotFoundError{Collection: storage.Units, ID: id}
	}
	for _, r := range s.reservations {
		if r.UnitID == id {
			s.mu.Unlock()
			return &ConstraintError{Reason: "unit " + id + " still has reservations"}
		}
	}
	if err := s.deleteRecord(ctx, storage.Units, id); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.units, id)
	s.mu.Unlock()

	s.sink.UnitsChanged()
	return nil
}

// ---- reservation operations ----

// Reservations returns all reservations ordered by creation time.
func (s *Store) Reservations() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sortReservations(out)
	return out
}

func (s *Store) ReservationByID(id string) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	return r, ok
}

func (s *Store) ReservationsForUnit(unitID string) []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsForUnitLocked(unitID)
}

func (s *Store) reservationsForUnitLocked(unitID string) []Reservation {
	var out []Reservation
	for _, r := range s.reservations {
		if r.UnitID == unitID {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

func (s *Store) CreateReservation(ctx context.Context, in ReservationInput) (Reservation, error) {
	if err := validateReservationInput(&in); err != nil {
		return Reservation{}, err
	}

	s.mu.Lock()
	if _, ok := s.units[in.UnitID]; !ok {
		s.mu.Unlock()
		return Reservation{}, &NotFoundError{Collection: storage.Units, ID: in.UnitID}
	}
	if len(s.conflictsLocked(in.UnitID, in.CheckIn, in.CheckOut, "")) > 0 {
		s.mu.Unlock()
		return Reservation{}, &ConflictError{UnitID: in.UnitID, CheckIn: in.CheckIn, CheckOut: in.CheckOut}
	}
	now := time.Now().UTC().Truncate(time.Second)
	r := Reservation{
		ID:         uuid.NewString(),
		UnitID:     in.UnitID,
		GuestName:  in.GuestName,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.putRecord(ctx, storage.Reservations, r.ID, r); err != nil {
		s.mu.Unlock()
		return Reservation{}, err
	}
	s.reservations[r.ID] = r
	s.mu.Unlock()

	s.sink.ReservationsChanged()
	return r, nil
}

func (s *Store) UpdateReservation(ctx context.Context, id string, in ReservationInput) (Reservation, error) {
	if err := validateReservationInput(&in); err != nil {
		return Reservation{}, err
	}

	s.mu.Lock()
	cur, ok := s.reservations[id]
	if !ok {
		s.mu.Unlock()
		return Reservation{}, &NotFoundError{Collection: storage.Reservations, ID: id}
	}
	if _, ok := s.units[in.UnitID]; !ok {
		s.mu.Unlock()
		return Reservation{}, &NotFoundError{Collection: storage.Units, ID: in.UnitID}
	}
	// The reservation being edited must not conflict with itself.
	if len(s.conflictsLocked(in.UnitID, in.CheckIn, in.CheckOut, id)) > 0 {
		s.mu.Unlock()
		return Reservation{}, &ConflictError{UnitID: in.UnitID, CheckIn: in.CheckIn, CheckOut: in.CheckOut}
	}
	next := cur
	next.UnitID = in.UnitID
	next.GuestName = in.GuestName
	next.CheckIn = in.CheckIn
	next.CheckOut = in.CheckOut
	next.ModifiedAt = time.Now().UTC().Truncate(time.Second)
	if err := s.putRecord(ctx, storage.Reservations, id, next); err != nil {
		s.mu.Unlock()
		return Reservation{}, err
	}
	s.reservations[id] = next
	s.mu.Unlock()

	s.sink.ReservationsChanged()
	return next, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.reservations[id]; !ok {
		s.mu.Unlock()
		return &NotFoundError{Collection: storage.Reservations, ID: id}
	}
	if err := s.deleteRecord(ctx, storage.Reservations, id); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.reservations, id)
	s.mu.Unlock()

	s.sink.ReservationsChanged()
	return nil
}

// ---- helpers ----

func validateUnitInput(in *UnitInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if in.Capacity < 1 {
		return &ValidationError{Field: "capacity", Reason: "must be at least 1"}
	}
	return nil
}

func validateReservationInput(in *ReservationInput) error {
	in.GuestName = strings.TrimSpace(in.GuestName)
	if in.GuestName == "" {
		return &ValidationError{Field: "guestName", Reason: "must not be empty"}
	}
	if in.CheckIn.IsZero() {
		return &ValidationError{Field: "checkIn", Reason: "required"}
	}
	if in.CheckOut.IsZero() {
		return &ValidationError{Field: "checkOut", Reason: "required"}
	}
	if !in.CheckIn.Before(in.CheckOut.Time) {
		return &ValidationError{Field: "checkOut", Reason: "must be after checkIn"}
	}
	return nil
}

func (s *Store) putRecord(ctx context.Context, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "encode " + collection + " " + id, Err: err}
	}
	if err := s.provider.Put(ctx, collection, storage.Record{ID: id, Data: data}); err != nil {
		return &PersistenceError{Op: "put " + collection + " " + id, Err: err}
	}
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, collection, id string) error {
	if err := s.provider.Delete(ctx, collection, id); err != nil {
		return &PersistenceError{Op: "delete " + collection + " " + id, Err: err}
	}
	return nil
}

func sortUnits(us []Unit) {
	sort.Slice(us, func(i, j int) bool {
		if !us[i].CreatedAt.Equal(us[j].CreatedAt) {
			return us[i].CreatedAt.Before(us[j].CreatedAt)
		}
		return us[i].ID < us[j].ID
	})
}

func sortReservations(rs []Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
