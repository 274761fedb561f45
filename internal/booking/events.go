package booking

import "time"

const (
	EventUnitsChanged        = "UnitsChanged"
	EventReservationsChanged = "ReservationsChanged"
)

const (
	TopicUnitsChanged        = "booking.units.changed"
	TopicReservationsChanged = "booking.reservations.changed"
)

// Envelope is the wire shape of a change notification. Notifications carry
// no payload; consumers re-read the collections they care about.
type Envelope struct {
	EventID      string    `json:"event_id"` // uuid
	EventType    string    `json:"event_type"`
	EventVersion int       `json:"event_version"` // 1
	OccurredAt   time.Time `json:"occurred_at"`   // RFC3339
	Producer     string    `json:"producer"`      // e.g., "bookingd"
}

// Partition key = producer, so one register's notifications stay ordered.
func PartitionKey(producer string) []byte { return []byte(producer) }

// Sink is notified after every committed mutation, local or
// remote-originated, so a presentation layer can re-render.
type Sink interface {
	UnitsChanged()
	ReservationsChanged()
}

// NopSink discards notifications.
type NopSink struct{}

func (NopSink) UnitsChanged()        {}
func (NopSink) ReservationsChanged() {}
