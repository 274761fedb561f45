package booking

import "time"

type DayKind string

const (
	DayCheckIn  DayKind = "checkin"
	DayCheckOut DayKind = "checkout"
	DayOccupied DayKind = "occupied"
)

// DayInfo describes one reserved day of a unit's month.
type DayInfo struct {
	Day           int     `json:"day"`
	Kind          DayKind `json:"kind"`
	GuestName     string  `json:"guestName"`
	ReservationID string  `json:"reservationId"`
}

// ReservedDatesForMonth returns the reserved days of a unit within one
// month, keyed by day of month. The checkout day is included so a calendar
// can mark it; when back-to-back reservations share a day, the later-created
// reservation wins.
func (s *Store) ReservedDatesForMonth(unitID string, year int, month time.Month) map[int]DayInfo {
	s.mu.Lock()
	reservations := s.reservationsForUnitLocked(unitID)
	s.mu.Unlock()

	out := map[int]DayInfo{}
	for _, r := range reservations {
		for d := r.CheckIn; !d.After(r.CheckOut.Time); d = d.AddDays(1) {
			if d.Year() != year || d.Month() != month {
				continue
			}
			kind := DayOccupied
			switch {
			case d.Equal(r.CheckIn.Time):
				kind = DayCheckIn
			case d.Equal(r.CheckOut.Time):
				kind = DayCheckOut
			}
			out[d.Day()] = DayInfo{
				Day:           d.Day(),
				Kind:          kind,
				GuestName:     r.GuestName,
				ReservationID: r.ID,
			}
		}
	}
	return out
}

// ReservationOnDate returns the reservation covering the given date for the
// unit, the date inclusive of the checkout day.
func (s *Store) ReservationOnDate(unitID string, date Date) (Reservation, DayKind, bool) {
	s.mu.Lock()
	reservations := s.reservationsForUnitLocked(unitID)
	s.mu.Unlock()

	for _, r := range reservations {
		if date.Before(r.CheckIn.Time) || date.After(r.CheckOut.Time) {
			continue
		}
		switch {
		case date.Equal(r.CheckIn.Time):
			return r, DayCheckIn, true
		case date.Equal(r.CheckOut.Time):
			return r, DayCheckOut, true
		}
		return r, DayOccupied, true
	}
	return Reservation{}, "", false
}
