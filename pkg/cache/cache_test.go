package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-dataflow/pkg/report"
)

func rep(title string) *report.Report {
	return &report.Report{
		Analysis: "reaching-definitions",
		Title:    title,
		Passes:   2,
		Blocks: []report.BlockFacts{
			{ID: 1, In: []string{"d1"}, Out: []string{"d1", "d2"}, Gen: []string{"d2"}, Kill: []string{"d3"}},
		},
	}
}

func TestKey(t *testing.T) {
	content := []byte("1 1\na = 1\n0\n")

	k := Key(content, "reaching-definitions")
	assert.Len(t, k, 64)
	assert.Equal(t, k, Key(content, "reaching-definitions"))
	assert.NotEqual(t, k, Key(content, "live-variables"))
	assert.NotEqual(t, k, Key([]byte("1 1\na = 2\n0\n"), "reaching-definitions"))
}

func TestCache_Basic(t *testing.T) {
	c := New(3)

	c.Put("a", rep("A"))
	c.Put("b", rep("B"))

	assert.Equal(t, 2, c.Len())

	r, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "A", r.Title)

	_, found = c.Get("missing")
	assert.False(t, found)

	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestCache_LRU_Eviction(t *testing.T) {
	c := New(3)

	c.Put("a", rep("A"))
	c.Put("b", rep("B"))
	c.Put("c", rep("C"))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Put("d", rep("D"))

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, "%s should still be present", k)
	}
	assert.Equal(t, 1, c.Stats().Evictions)
}

func TestCache_PutReplaces(t *testing.T) {
	c := New(2)

	c.Put("a", rep("old"))
	c.Put("a", rep("new"))

	assert.Equal(t, 1, c.Len())
	r, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "new", r.Title)
}

func TestCache_Delete(t *testing.T) {
	c := New(0)

	c.Put("a", rep("A"))
	c.Put("b", rep("B"))
	c.Delete("a")
	c.Delete("nope")

	assert.Equal(t, 1, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
	_, found = c.Get("b")
	assert.True(t, found)
}

func TestCache_SaveLoad(t *testing.T) {
	c := New(10)
	c.Put("a", rep("A"))
	c.Put("b", rep("B"))
	c.Put("c", rep("C"))
	c.Get("a") // order is now a, c, b

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded := New(2)
	require.NoError(t, loaded.Load(&buf))

	// Capacity 2 keeps the two most recent entries.
	assert.Equal(t, 2, loaded.Len())
	r, found := loaded.Get("a")
	require.True(t, found)
	assert.Equal(t, rep("A"), r)
	_, found = loaded.Get("c")
	assert.True(t, found)
	_, found = loaded.Get("b")
	assert.False(t, found)
}

func TestCache_LoadOtherVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(&snapshot{
		Version: snapshotVersion + 1,
		Entries: []Entry{{Key: "a", Report: rep("A")}},
	}))

	c := New(10)
	c.Put("x", rep("X"))
	require.NoError(t, c.Load(&buf))
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadGarbage(t *testing.T) {
	c := New(10)
	err := c.Load(bytes.NewBufferString("not msgpack at all"))
	assert.Error(t, err)
}

func TestCache_Files(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.msgpack")

	c := New(10)
	require.NoError(t, c.LoadFile(path), "missing file is not an error")
	assert.Equal(t, 0, c.Len())

	c.Put("k", rep("K"))
	require.NoError(t, c.SaveFile(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	restored := New(10)
	require.NoError(t, restored.LoadFile(path))
	r, found := restored.Get("k")
	require.True(t, found)
	assert.Equal(t, "K", r.Title)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestCache_Concurrent(t *testing.T) {
	c := New(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d-%d", i, j%20)
				if _, ok := c.Get(key); !ok {
					c.Put(key, rep(key))
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
