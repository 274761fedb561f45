package booking

// IsAvailable reports whether the unit has no reservation overlapping the
// half-open window [checkIn, checkOut). excludeReservationID is skipped in
// the scan, for edits.
func (s *Store) IsAvailable(unitID string, checkIn, checkOut Date, excludeReservationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conflictsLocked(unitID, checkIn, checkOut, excludeReservationID)) == 0
}

func (s *Store) conflictsLocked(unitID string, checkIn, checkOut Date, excludeReservationID string) []Reservation {
	var out []Reservation
	for _, r := range s.reservations {
		if r.UnitID != unitID || r.ID == excludeReservationID {
			continue
		}
		if overlaps(checkIn, checkOut, r.CheckIn, r.CheckOut) {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

// FindAvailableUnits filters the catalog by capacity and, when both dates
// are given, by availability over the requested window.
func (s *Store) FindAvailableUnits(criteria SearchCriteria) []Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	bothDates := !criteria.CheckIn.IsZero() && !criteria.CheckOut.IsZero()
	var out []Unit
	for _, u := range s.units {
		if criteria.MinCapacity > 0 && u.Capacity < criteria.MinCapacity {
			continue
		}
		if bothDates && len(s.conflictsLocked(u.ID, criteria.CheckIn, criteria.CheckOut, "")) > 0 {
			continue
		}
		out = append(out, u)
	}
	sortUnits(out)
	return out
}

// FindUnitsWithAvailability partitions the capacity-matching units into
// available and unavailable, with the overlapping reservations attached to
// the unavailable ones so a caller can show why.
func (s *Store) FindUnitsWithAvailability(criteria SearchCriteria) Availability {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Availability{Available: []Unit{}, Unavailable: []UnitConflicts{}}
	bothDates := !criteria.CheckIn.IsZero() && !criteria.CheckOut.IsZero()

	units := make([]Unit, 0, len(s.units))
	for _, u := range s.units {
		units = append(units, u)
	}
	sortUnits(units)

	for _, u := range units {
		if criteria.MinCapacity > 0 && u.Capacity < criteria.MinCapacity {
			continue
		}
		if !bothDates {
			result.Available = append(result.Available, u)
			continue
		}
		conflicts := s.conflictsLocked(u.ID, criteria.CheckIn, criteria.CheckOut, "")
		if len(conflicts) == 0 {
			result.Available = append(result.Available, u)
		} else {
			result.Unavailable = append(result.Unavailable, UnitConflicts{Unit: u, Conflicts: conflicts})
		}
	}
	return result
}
