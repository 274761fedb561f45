package booking

import "time"

// Unit is a rentable apartment.
type Unit struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// Reservation books one unit for a guest over the half-open range
// [CheckIn, CheckOut).
type Reservation struct {
	ID         string    `json:"id"`
	UnitID     string    `json:"unitId"`
	GuestName  string    `json:"guestName"`
	CheckIn    Date      `json:"checkIn"`
	CheckOut   Date      `json:"checkOut"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// The provider record key is authoritative over whatever id the stored
// body carries.
func (u *Unit) setID(id string)        { u.ID = id }
func (r *Reservation) setID(id string) { r.ID = id }

type UnitInput struct {
	Name        string
	Capacity    int
	Description string
}

type ReservationInput struct {
	UnitID    string
	GuestName string
	CheckIn   Date
	CheckOut  Date
}

// SearchCriteria filters units. A zero date is "not given": the date filter
// only applies when both CheckIn and CheckOut are set, and MinCapacity only
// when positive. Rejecting fully-empty criteria is the caller's job.
type SearchCriteria struct {
	CheckIn     Date
	CheckOut    Date
	MinCapacity int
}

// UnitConflicts is an unavailable unit together with the reservations that
// overlap the requested window.
type UnitConflicts struct {
	Unit
	Conflicts []Reservation `json:"conflicts"`
}

// Availability partitions the catalog for a requested window.
type Availability struct {
	Available   []Unit          `json:"available"`
	Unavailable []UnitConflicts `json:"unavailable"`
}

// Snapshot is the export/import payload. A nil collection means "key absent":
// ImportAll leaves that collection untouched.
type Snapshot struct {
	Units        []Unit        `json:"units"`
	Reservations []Reservation `json:"reservations"`
	ExportedAt   time.Time     `json:"exportedAt"`
}
