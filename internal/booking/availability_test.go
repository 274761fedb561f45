package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlapBoundaries(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	_, err = s.CreateReservation(ctx, ReservationInput{
		UnitID: u.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-10"), CheckOut: mustDate(t, "2025-11-15"),
	})
	require.NoError(t, err)

	cases := []struct {
		name      string
		in, out   string
		available bool
	}{
		{"ends at stored check-in", "2025-11-05", "2025-11-10", true},
		{"starts at stored checkout", "2025-11-15", "2025-11-18", true},
		{"overlaps the tail", "2025-11-14", "2025-11-20", false},
		{"nested single night", "2025-11-10", "2025-11-11", false},
		{"covers the whole stay", "2025-11-08", "2025-11-20", false},
		{"identical window", "2025-11-10", "2025-11-15", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.IsAvailable(u.ID, mustDate(t, tc.in), mustDate(t, tc.out), "")
			require.Equal(t, tc.available, got)
		})
	}

	// Other units are unaffected.
	other, err := s.CreateUnit(ctx, UnitInput{Name: "Loft", Capacity: 2})
	require.NoError(t, err)
	require.True(t, s.IsAvailable(other.ID, mustDate(t, "2025-11-10"), mustDate(t, "2025-11-15"), ""))
}

func TestReservedWindowIsUnavailableAndConflicts(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	in, out := mustDate(t, "2025-11-05"), mustDate(t, "2025-11-07")
	_, err = s.CreateReservation(ctx, ReservationInput{UnitID: u.ID, GuestName: "Ana", CheckIn: in, CheckOut: out})
	require.NoError(t, err)

	require.False(t, s.IsAvailable(u.ID, in, out, ""))

	var conflict *ConflictError
	_, err = s.CreateReservation(ctx, ReservationInput{UnitID: u.ID, GuestName: "Bruno", CheckIn: in, CheckOut: out})
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, u.ID, conflict.UnitID)
}

func TestFindAvailableUnitsScenario(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	studio, err := s.CreateUnit(ctx, UnitInput{Name: "Studio A", Capacity: 2})
	require.NoError(t, err)
	_, err = s.CreateReservation(ctx, ReservationInput{
		UnitID: studio.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-05"), CheckOut: mustDate(t, "2025-11-07"),
	})
	require.NoError(t, err)

	// Booked window: nothing fits.
	got := s.FindAvailableUnits(SearchCriteria{
		CheckIn: mustDate(t, "2025-11-05"), CheckOut: mustDate(t, "2025-11-07"), MinCapacity: 2,
	})
	require.Empty(t, got)

	// Back-to-back window starting on the checkout day: Studio A is free.
	got = s.FindAvailableUnits(SearchCriteria{
		CheckIn: mustDate(t, "2025-11-07"), CheckOut: mustDate(t, "2025-11-09"), MinCapacity: 2,
	})
	require.Len(t, got, 1)
	require.Equal(t, studio.ID, got[0].ID)

	// Capacity filter alone.
	_, err = s.CreateUnit(ctx, UnitInput{Name: "Penthouse", Capacity: 6})
	require.NoError(t, err)
	got = s.FindAvailableUnits(SearchCriteria{MinCapacity: 4})
	require.Len(t, got, 1)
	require.Equal(t, "Penthouse", got[0].Name)
}

func TestFindAvailableUnitsIgnoresLoneDate(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	_, err = s.CreateReservation(ctx, ReservationInput{
		UnitID: u.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-05"), CheckOut: mustDate(t, "2025-11-07"),
	})
	require.NoError(t, err)

	// Only checkIn given: the date criterion does not filter.
	got := s.FindAvailableUnits(SearchCriteria{CheckIn: mustDate(t, "2025-11-05"), MinCapacity: 1})
	require.Len(t, got, 1)
}

func TestFindUnitsWithAvailabilityPartition(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	studio, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	loft, err := s.CreateUnit(ctx, UnitInput{Name: "Loft", Capacity: 4})
	require.NoError(t, err)
	r, err := s.CreateReservation(ctx, ReservationInput{
		UnitID: studio.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-10"), CheckOut: mustDate(t, "2025-11-15"),
	})
	require.NoError(t, err)

	res := s.FindUnitsWithAvailability(SearchCriteria{
		CheckIn: mustDate(t, "2025-11-12"), CheckOut: mustDate(t, "2025-11-14"),
	})
	require.Len(t, res.Available, 1)
	require.Equal(t, loft.ID, res.Available[0].ID)
	require.Len(t, res.Unavailable, 1)
	require.Equal(t, studio.ID, res.Unavailable[0].ID)
	require.Len(t, res.Unavailable[0].Conflicts, 1)
	require.Equal(t, r.ID, res.Unavailable[0].Conflicts[0].ID)
}

func TestReservedDatesForMonth(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	r, err := s.CreateReservation(ctx, ReservationInput{
		UnitID: u.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-29"), CheckOut: mustDate(t, "2025-12-02"),
	})
	require.NoError(t, err)

	nov := s.ReservedDatesForMonth(u.ID, 2025, 11)
	require.Len(t, nov, 2)
	require.Equal(t, DayCheckIn, nov[29].Kind)
	require.Equal(t, DayOccupied, nov[30].Kind)
	require.Equal(t, r.ID, nov[29].ReservationID)

	dec := s.ReservedDatesForMonth(u.ID, 2025, 12)
	require.Len(t, dec, 2)
	require.Equal(t, DayOccupied, dec[1].Kind)
	require.Equal(t, DayCheckOut, dec[2].Kind)
}

func TestReservationOnDate(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUnit(ctx, UnitInput{Name: "Studio", Capacity: 2})
	require.NoError(t, err)
	r, err := s.CreateReservation(ctx, ReservationInput{
		UnitID: u.ID, GuestName: "Ana",
		CheckIn: mustDate(t, "2025-11-10"), CheckOut: mustDate(t, "2025-11-15"),
	})
	require.NoError(t, err)

	got, kind, ok := s.ReservationOnDate(u.ID, mustDate(t, "2025-11-12"))
	require.True(t, ok)
	require.Equal(t, r.ID, got.ID)
	require.Equal(t, DayOccupied, kind)

	_, kind, ok = s.ReservationOnDate(u.ID, mustDate(t, "2025-11-10"))
	require.True(t, ok)
	require.Equal(t, DayCheckIn, kind)

	_, kind, ok = s.ReservationOnDate(u.ID, mustDate(t, "2025-11-15"))
	require.True(t, ok)
	require.Equal(t, DayCheckOut, kind)

	_, _, ok = s.ReservationOnDate(u.ID, mustDate(t, "2025-11-16"))
	require.False(t, ok)
}
