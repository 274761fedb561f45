// Package filestore persists collections as JSON files on disk, one file
// per collection. Writes go to a temp file first and are renamed into
// place, keeping the previous version as a .bak.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

const (
	tmpSuffix = ".tmp"
	bakSuffix = ".bak"
	filePerms = 0o644
)

type Store struct {
	dir string
	log *logrus.Logger

	mu sync.Mutex
}

func New(dir string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *Store) LoadAll(ctx context.Context, collection string) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(collection)
}

func (s *Store) loadLocked(collection string) ([]storage.Record, error) {
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []storage.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(collection), err)
	}
	return recs, nil
}

func (s *Store) Put(ctx context.Context, collection string, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.loadLocked(collection)
	if err != nil {
		return err
	}
	replaced := false
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		recs = append(recs, rec)
	}
	return s.saveLocked(collection, recs)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.loadLocked(collection)
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return s.saveLocked(collection, kept)
}

func (s *Store) saveLocked(collection string, recs []storage.Record) error {
	if recs == nil {
		recs = []storage.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}

	file := s.path(collection)
	tmp := file + tmpSuffix
	if err := os.WriteFile(tmp, data, filePerms); err != nil {
		return err
	}

	// Copy rather than rename the previous version: the primary file must
	// exist at every point until the final atomic replace.
	if prev, err := os.ReadFile(file); err == nil {
		if err := os.WriteFile(file+bakSuffix, prev, filePerms); err != nil {
			s.log.WithError(err).Warnf("failed to keep backup of %s", file)
		}
	}
	return os.Rename(tmp, file)
}
