package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

type Store struct {
	RDB *redis.Client
	Log *logrus.Logger
}

func (s *Store) logger() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

func (s *Store) LoadAll(ctx context.Context, collection string) ([]storage.Record, error) {
	all, err := s.RDB.HGetAll(ctx, fmt.Sprintf(keyCollection, collection)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]storage.Record, 0, len(all))
	for id, doc := range all {
		out = append(out, storage.Record{ID: id, Data: json.RawMessage(doc)})
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, collection string, rec storage.Record) error {
	key := fmt.Sprintf(keyCollection, collection)
	existed, err := s.RDB.HExists(ctx, key, rec.ID).Result()
	if err != nil {
		return err
	}
	if err := s.RDB.HSet(ctx, key, rec.ID, string(rec.Data)).Err(); err != nil {
		return err
	}

	kind := storage.ChangeAdded
	if existed {
		kind = storage.ChangeModified
	}
	s.publish(ctx, storage.ChangeEvent{Kind: kind, Collection: collection, Record: rec})
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.RDB.HDel(ctx, fmt.Sprintf(keyCollection, collection), id).Err(); err != nil {
		return err
	}
	s.publish(ctx, storage.ChangeEvent{
		Kind:       storage.ChangeRemoved,
		Collection: collection,
		Record:     storage.Record{ID: id},
	})
	return nil
}

// publish is best-effort: a lost notification only delays listeners until
// their next resync, while a failed write must surface to the caller.
func (s *Store) publish(ctx context.Context, ev storage.ChangeEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		s.logger().WithError(err).Warn("encode change event")
		return
	}
	if err := s.RDB.Publish(ctx, fmt.Sprintf(keyChanges, ev.Collection), b).Err(); err != nil {
		s.logger().WithError(err).Warnf("publish %s change", ev.Collection)
	}
}

// Subscribe streams change events for one collection until ctx is done.
func (s *Store) Subscribe(ctx context.Context, collection string, fn func(storage.ChangeEvent)) error {
	sub := s.RDB.Subscribe(ctx, fmt.Sprintf(keyChanges, collection))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev storage.ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					s.logger().WithError(err).Warnf("dropping malformed %s change", collection)
					continue
				}
				fn(ev)
			}
		}
	}()
	return nil
}
