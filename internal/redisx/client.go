// Package redisx is the remote document store: one hash per collection,
// plus a pub/sub channel per collection streaming change events. Like any
// push-based store it replays our own writes back at us; the booking store
// materializes those idempotently.
package redisx

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash per collection: booking:{collection} -> field id, value doc JSON.
const keyCollection = "booking:%s"

// Change channel per collection: booking:changes:{collection}.
const keyChanges = "booking:changes:%s"

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	return r.WithTimeout(2 * time.Second)
}
