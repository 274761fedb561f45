package storage

import (
	"context"
	"encoding/json"
)

// Collection names used by every provider.
const (
	Units        = "units"
	Reservations = "reservations"
)

// Record is one stored document, keyed by ID. Data holds the JSON body
// exactly as the domain layer marshals it.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeEvent is a single document change pushed by a Watcher. Removed
// events carry only the ID.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	Collection string     `json:"collection"`
	Record     Record     `json:"record"`
}

// Provider is the durable store the booking register reads at startup and
// writes on every mutation.
type Provider interface {
	LoadAll(ctx context.Context, collection string) ([]Record, error)
	Put(ctx context.Context, collection string, rec Record) error
	Delete(ctx context.Context, collection, id string) error
}

// Watcher is implemented by providers that push change events (remote
// document stores). Delivery may duplicate or replay; consumers must apply
// events idempotently by ID.
type Watcher interface {
	Subscribe(ctx context.Context, collection string, fn func(ChangeEvent)) error
}
