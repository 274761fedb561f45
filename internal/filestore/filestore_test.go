package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcastilla/go-booking-register.git/internal/storage"
)

func rec(id, body string) storage.Record {
	return storage.Record{ID: id, Data: json.RawMessage(body)}
}

func TestPutLoadDelete(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, storage.Units, rec("u1", `{"name":"Studio"}`)))
	require.NoError(t, fs.Put(ctx, storage.Units, rec("u2", `{"name":"Loft"}`)))

	recs, err := fs.LoadAll(ctx, storage.Units)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Put with an existing id replaces in place.
	require.NoError(t, fs.Put(ctx, storage.Units, rec("u1", `{"name":"Studio B"}`)))
	recs, err = fs.LoadAll(ctx, storage.Units)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.NoError(t, fs.Delete(ctx, storage.Units, "u1"))
	recs, err = fs.LoadAll(ctx, storage.Units)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "u2", recs[0].ID)
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fs, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, fs.Put(ctx, storage.Reservations, rec("r1", `{"guestName":"Ana"}`)))

	reopened, err := New(dir, nil)
	require.NoError(t, err)
	recs, err := reopened.LoadAll(ctx, storage.Reservations)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "r1", recs[0].ID)
}

func TestMissingFileIsEmptyCollection(t *testing.T) {
	fs, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	recs, err := fs.LoadAll(context.Background(), storage.Units)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestKeepsBackupOfPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Put(ctx, storage.Units, rec("u1", `{"name":"Studio"}`)))
	require.NoError(t, fs.Put(ctx, storage.Units, rec("u2", `{"name":"Loft"}`)))

	bak := filepath.Join(dir, storage.Units+".json"+bakSuffix)
	data, err := os.ReadFile(bak)
	require.NoError(t, err)

	var recs []storage.Record
	require.NoError(t, json.Unmarshal(data, &recs))
	require.Len(t, recs, 1, "backup holds the version before the last write")
}

func TestPrimaryFileSurvivesEveryWrite(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	file := filepath.Join(dir, storage.Units+".json")
	for i, r := range []storage.Record{
		rec("u1", `{"name":"Studio"}`),
		rec("u2", `{"name":"Loft"}`),
		rec("u1", `{"name":"Studio B"}`),
	} {
		require.NoError(t, fs.Put(ctx, storage.Units, r))

		// The primary file is present and readable after each write, and
		// no temp file lingers.
		recs, err := fs.LoadAll(ctx, storage.Units)
		require.NoError(t, err)
		require.NotEmpty(t, recs, "write %d", i)
		_, err = os.Stat(file)
		require.NoError(t, err)
		_, err = os.Stat(file + tmpSuffix)
		require.ErrorIs(t, err, os.ErrNotExist)
	}
}
