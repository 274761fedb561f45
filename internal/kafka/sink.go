package kafka

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/dcastilla/go-booking-register.git/internal/booking"
)

// Sink publishes payload-free change notifications, one topic per
// collection. Consumers re-read the collections they care about.
type Sink struct {
	Units        *Producer
	Reservations *Producer
	Service      string
}

func (s *Sink) UnitsChanged() {
	s.publish(s.Units, booking.EventUnitsChanged)
}

func (s *Sink) ReservationsChanged() {
	s.publish(s.Reservations, booking.EventReservationsChanged)
}

func (s *Sink) publish(p *Producer, eventType string) {
	ev := booking.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.Service,
	}
	p.Publish(booking.PartitionKey(s.Service), MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Sink) Close() {
	s.Units.Close()
	s.Reservations.Close()
	s.Units.WaitClosed()
	s.Reservations.WaitClosed()
}
