package cache

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testviewer/internal/storage"
)

// blob returns n bytes; multiples of 3 keep base64 sizes easy to reason about (4 chars per 3 bytes)
func blob(n int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, n)
}

func keys(t *testing.T, s storage.Store) []string {
	t.Helper()
	k, err := s.Keys("")
	require.NoError(t, err)
	return k
}

func TestArchiveCache_RoundTrip(t *testing.T) {
	c := New(storage.NewMemoryStore(), 1024, zerolog.Nop())

	_, ok := c.Get(1)
	assert.False(t, ok)

	require.NoError(t, c.Put(1, []byte("PK\x03\x04 zip bytes")))
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte("PK\x03\x04 zip bytes"), got)
}

func TestArchiveCache_TooLargeEvictsNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 100, zerolog.Nop())
	require.NoError(t, c.Put(1, blob(30, 'a'))) // 10 + 40 = 50

	err := c.Put(2, blob(90, 'b')) // 10 + 120 = 130 > 100
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	assert.Equal(t, []string{"artifact_1"}, keys(t, store))
}

func TestArchiveCache_EvictsLargestFirstUntilFit(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 200, zerolog.Nop())

	require.NoError(t, c.Put(1, blob(30, 'a'))) // 50
	require.NoError(t, c.Put(2, blob(60, 'b'))) // 90
	require.NoError(t, c.Put(3, blob(15, 'c'))) // 30, total 170

	require.NoError(t, c.Put(4, blob(30, 'd'))) // 50: 220 > 200, evicting artifact_2 alone suffices

	assert.Equal(t, []string{"artifact_1", "artifact_3", "artifact_4"}, keys(t, store))

	u, err := c.Usage()
	require.NoError(t, err)
	assert.Equal(t, Usage{Entries: 3, Bytes: 130, Ceiling: 200}, u)
}

func TestArchiveCache_EvictsSeveralWhenNeeded(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 200, zerolog.Nop())

	require.NoError(t, c.Put(1, blob(30, 'a'))) // 50
	require.NoError(t, c.Put(2, blob(30, 'b'))) // 50
	require.NoError(t, c.Put(3, blob(30, 'c'))) // 50

	require.NoError(t, c.Put(4, blob(105, 'd'))) // 10 + 140 = 150: needs two evictions

	assert.Equal(t, []string{"artifact_3", "artifact_4"}, keys(t, store), "ties are evicted in key order")
}

func TestArchiveCache_NeverEvictsOtherNamespaces(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.TokenKey, string(blob(500, 't'))))
	require.NoError(t, store.Set("run_artifacts_1", string(blob(500, 'r'))))
	c := New(store, 80, zerolog.Nop())

	require.NoError(t, c.Put(1, blob(30, 'a')))
	require.NoError(t, c.Put(2, blob(30, 'b'))) // only artifact_1 may make room

	assert.Equal(t, []string{"artifact_2", storage.TokenKey, "run_artifacts_1"}, keys(t, store))
}

func TestArchiveCache_ReplaceDoesNotCountOldValue(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 100, zerolog.Nop())

	require.NoError(t, c.Put(1, blob(30, 'a'))) // 50
	require.NoError(t, c.Put(2, blob(30, 'b'))) // 50
	require.NoError(t, c.Put(2, blob(30, 'c'))) // replaces itself, still 100

	assert.Equal(t, []string{"artifact_1", "artifact_2"}, keys(t, store))
	got, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, blob(30, 'c'), got)
}

func TestArchiveCache_BackendRejectsWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set("settings", string(blob(80, 's'))))
	store.Limit = 100
	c := New(store, 1000, zerolog.Nop())

	err := c.Put(1, blob(30, 'a'))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestArchiveCache_CorruptEntryDropped(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(Key(5), "%%% not base64 %%%"))
	c := New(store, 1000, zerolog.Nop())

	_, ok := c.Get(5)
	assert.False(t, ok)
	assert.Empty(t, keys(t, store))
}

func TestArchiveCache_Remove(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 1000, zerolog.Nop())
	require.NoError(t, c.Put(1, blob(3, 'a')))
	require.NoError(t, c.Put(2, blob(3, 'b')))

	require.NoError(t, c.Remove(1))
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, []string{"artifact_2"}, keys(t, store))
	assert.NoError(t, c.Remove(1), "removing an absent archive is not an error")
}

func TestArchiveCache_Clear(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.TokenKey, "secret"))
	c := New(store, 1000, zerolog.Nop())
	require.NoError(t, c.Put(1, blob(3, 'a')))
	require.NoError(t, c.Put(2, blob(3, 'b')))

	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{storage.TokenKey}, keys(t, store))
}

func TestArchiveCache_ConcurrentPutsStayUnderCeiling(t *testing.T) {
	store := storage.NewMemoryStore()
	c := New(store, 300, zerolog.Nop())

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = c.Put(id, blob(60, byte('a'+id)))
		}(i)
	}
	wg.Wait()

	u, err := c.Usage()
	require.NoError(t, err)
	assert.LessOrEqual(t, u.Bytes, 300)
}
