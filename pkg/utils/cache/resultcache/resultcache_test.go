package resultcache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Data string `json:"data"`
}

func testKey(event, kind string) Key {
	return Key{Year: 2024, Event: event, SessionType: "R", DataKind: kind}
}

func blobFile(dir string, key Key) string {
	return filepath.Join(dir, key.id()+blobSuffix)
}

func TestPutGetRoundtrip(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	key := testKey("Monza", "comparison_VER_HAM_0_0_1000")
	require.NoError(t, c.Put(key, payload{Data: "hello"}))

	var got payload
	require.True(t, c.Get(key, &got))
	assert.Equal(t, "hello", got.Data)
}

func TestGetNormalizesEvent(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, c.Put(testKey("Monza GP", "kind"), payload{Data: "x"}))

	var got payload
	assert.True(t, c.Get(testKey("monza gp", "kind"), &got),
		"equivalent event spellings must map to the same entry")
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := testKey("Monza", "kind")
	{
		c, err := New(dir)
		require.NoError(t, err)
		require.NoError(t, c.Put(key, payload{Data: "persisted"}))
	}

	c, err := New(dir)
	require.NoError(t, err)
	var got payload
	require.True(t, c.Get(key, &got))
	assert.Equal(t, "persisted", got.Data)
}

func TestLazyTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c, err := New(dir,
		WithTTL(24*time.Hour),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	key := testKey("Monza", "kind")
	require.NoError(t, c.Put(key, payload{Data: "x"}))
	assert.True(t, c.Exists(key))

	now = now.Add(25 * time.Hour)

	var got payload
	assert.False(t, c.Get(key, &got), "expired entry must read as a miss")
	assert.NoFileExists(t, blobFile(dir, key), "expired blob must be purged")
	assert.Equal(t, 0, c.Stats().TotalEntries)
}

func TestLRUEvictionPrefersStaleEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c, err := New(dir,
		WithMaxBytes(250),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	keyA := testKey("Monza", "a")
	keyB := testKey("Monza", "b")
	keyC := testKey("Monza", "c")
	blob := payload{Data: strings.Repeat("x", 100)}

	require.NoError(t, c.Put(keyA, blob))
	now = now.Add(time.Minute)
	require.NoError(t, c.Put(keyB, blob))

	// touching A makes B the least recently accessed entry
	now = now.Add(time.Minute)
	var got payload
	require.True(t, c.Get(keyA, &got))

	now = now.Add(time.Minute)
	require.NoError(t, c.Put(keyC, blob))

	assert.True(t, c.Exists(keyA))
	assert.False(t, c.Exists(keyB), "least recently accessed entry is evicted")
	assert.True(t, c.Exists(keyC))
	assert.LessOrEqual(t, c.Stats().TotalSizeBytes, int64(250))
}

func TestCorruptBlobSelfHeals(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	key := testKey("Monza", "kind")
	require.NoError(t, c.Put(key, payload{Data: "x"}))
	require.NoError(t,
		os.WriteFile(blobFile(dir, key), []byte("not cbor at all"), 0o644))

	var got payload
	assert.False(t, c.Get(key, &got), "corrupt entry must read as a miss")
	assert.False(t, c.Exists(key))
	assert.NoFileExists(t, blobFile(dir, key))
}

func TestReconcileRemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	keyA := testKey("Monza", "a")
	keyB := testKey("Monza", "b")
	{
		c, err := New(dir)
		require.NoError(t, err)
		require.NoError(t, c.Put(keyA, payload{Data: "a"}))
		require.NoError(t, c.Put(keyB, payload{Data: "b"}))
	}
	// blob without index entry and index entry without blob
	ghost := filepath.Join(dir, "ghost"+blobSuffix)
	require.NoError(t, os.WriteFile(ghost, []byte("stray"), 0o644))
	require.NoError(t, os.Remove(blobFile(dir, keyB)))

	c, err := New(dir)
	require.NoError(t, err)

	assert.True(t, c.Exists(keyA))
	assert.False(t, c.Exists(keyB))
	assert.NoFileExists(t, ghost)
	assert.Equal(t, 1, c.Stats().TotalEntries)
}

func TestUnreadableIndexResets(t *testing.T) {
	dir := t.TempDir()
	key := testKey("Monza", "kind")
	{
		c, err := New(dir)
		require.NoError(t, err)
		require.NoError(t, c.Put(key, payload{Data: "x"}))
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, indexFilename), []byte("{broken"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)

	// index is truth: without it the blobs are unaccounted and get removed
	assert.False(t, c.Exists(key))
	assert.Equal(t, 0, c.Stats().TotalEntries)
	assert.NoFileExists(t, blobFile(dir, key))
}

func TestClearRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put(testKey("Monza", "a"), payload{Data: "a"}))
	require.NoError(t, c.Put(testKey("Monza", "b"), payload{Data: "b"}))

	count, err := c.Clear()
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, 0, c.Stats().TotalEntries)
	assert.Equal(t, int64(0), c.Stats().TotalSizeBytes)
}

func TestSessionsSortedByLastAccess(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c, err := New(dir, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, c.Put(testKey("Monza", "a"), payload{Data: "a"}))
	now = now.Add(time.Minute)
	require.NoError(t, c.Put(testKey("Spa", "b"), payload{Data: "b"}))
	now = now.Add(time.Minute)
	var got payload
	require.True(t, c.Get(testKey("Monza", "a"), &got))

	entries := c.Sessions()
	require.Len(t, entries, 2)
	assert.Equal(t, "Monza", entries[0].Event)
	assert.Equal(t, "Spa", entries[1].Event)
}
