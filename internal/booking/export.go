package booking

import (
	"context"
	"time"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

// ExportAll snapshots both collections for backup.
func (s *Store) ExportAll() Snapshot {
	return Snapshot{
		Units:        s.Units(),
		Reservations: s.Reservations(),
		ExportedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// ImportAll replaces each collection wholesale when the corresponding
// snapshot slice is present (non-nil). Records keep their ids and
// timestamps, so exporting and re-importing is a no-op.
func (s *Store) ImportAll(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	err := s.importLocked(ctx, snap)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if snap.Units != nil {
		s.sink.UnitsChanged()
	}
	if snap.Reservations != nil {
		s.sink.ReservationsChanged()
	}
	return nil
}

func (s *Store) importLocked(ctx context.Context, snap Snapshot) error {
	if snap.Units != nil {
		next := map[string]Unit{}
		for _, u := range snap.Units {
			if u.ID == "" {
				return &ValidationError{Field: "units", Reason: "record without id"}
			}
			if _, seen := next[u.ID]; seen {
				s.log.Warnf("duplicate unit %s in import collapsed (keep-last)", u.ID)
			}
			next[u.ID] = u
		}
		if err := s.replaceCollectionLocked(ctx, storage.Units, unitRecords(next)); err != nil {
			return err
		}
		s.units = next
	}

	if snap.Reservations != nil {
		next := map[string]Reservation{}
		for _, r := range snap.Reservations {
			if r.ID == "" {
				return &ValidationError{Field: "reservations", Reason: "record without id"}
			}
			if _, seen := next[r.ID]; seen {
				s.log.Warnf("duplicate reservation %s in import collapsed (keep-last)", r.ID)
			}
			next[r.ID] = r
		}
		if err := s.replaceCollectionLocked(ctx, storage.Reservations, reservationRecords(next)); err != nil {
			return err
		}
		s.reservations = next
	}
	return nil
}

// ClearAll wipes both collections.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	for id := range s.reservations {
		if err := s.deleteRecord(ctx, storage.Reservations, id); err != nil {
			s.mu.Unlock()
			return err
		}
		delete(s.reservations, id)
	}
	for id := range s.units {
		if err := s.deleteRecord(ctx, storage.Units, id); err != nil {
			s.mu.Unlock()
			return err
		}
		delete(s.units, id)
	}
	s.mu.Unlock()

	s.sink.UnitsChanged()
	s.sink.ReservationsChanged()
	return nil
}

// replaceCollectionLocked deletes provider records absent from keep and puts
// every kept record. Caller holds the lock.
func (s *Store) replaceCollectionLocked(ctx context.Context, collection string, keep map[string]any) error {
	existing, err := s.provider.LoadAll(ctx, collection)
	if err != nil {
		return &PersistenceError{Op: "load " + collection, Err: err}
	}
	for _, rec := range existing {
		if _, ok := keep[rec.ID]; ok {
			continue
		}
		if err := s.deleteRecord(ctx, collection, rec.ID); err != nil {
			return err
		}
	}
	for id, v := range keep {
		if err := s.putRecord(ctx, collection, id, v); err != nil {
			return err
		}
	}
	return nil
}

func unitRecords(m map[string]Unit) map[string]any {
	out := make(map[string]any, len(m))
	for id, u := range m {
		out[id] = u
	}
	return out
}

func reservationRecords(m map[string]Reservation) map[string]any {
	out := make(map[string]any, len(m))
	for id, r := range m {
		out[id] = r
	}
	return out
}
