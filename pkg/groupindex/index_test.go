package groupindex

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_OrderedIteration(t *testing.T) {
	m := NewMap[int64, string]()
	for _, k := range []int64{50, 3, 1000, 7, 3} {
		m.Set(k, "v")
	}

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []int64{3, 7, 50, 1000}, keysOf(m))

	var desc []int64
	m.Descend(func(k int64, _ string) bool {
		desc = append(desc, k)
		return true
	})
	assert.Equal(t, []int64{1000, 50, 7, 3}, desc)
}

func TestMap_GetSetDelete(t *testing.T) {
	m := NewMap[string, int]()

	_, ok := m.Get("a")
	assert.False(t, ok)

	m.Set("a", 1)
	m.Set("a", 2)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, 0, m.Len())
}

func TestMap_GetOrInsert(t *testing.T) {
	m := NewMap[uint64, *PathList]()
	calls := 0
	create := func() *PathList {
		calls++
		return &PathList{}
	}

	first := m.GetOrInsert(9, create)
	*first = append(*first, "/x")
	second := m.GetOrInsert(9, create)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.Equal(t, PathList{"/x"}, *second)
}

func TestMap_EmptyKeySortsFirst(t *testing.T) {
	m := NewContentMap()
	m.Set("\x00\x01", NewInodeMap())
	m.Set("\xff", NewInodeMap())
	m.Set(Unhashed, NewInodeMap())

	var keys []string
	m.Ascend(func(k string, _ *InodeMap) bool {
		keys = append(keys, k)
		return true
	})
	require.Len(t, keys, 3)
	assert.Equal(t, Unhashed, keys[0])
}

func TestMap_AscendStops(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i)
	}

	seen := 0
	m.Ascend(func(k, _ int) bool {
		seen++
		return k < 4
	})
	assert.Equal(t, 5, seen)
}

func TestIndex_Add(t *testing.T) {
	ix := New()
	ix.Add(1, 100, 10, "/a")
	ix.Add(1, 100, 10, "/a-link")
	ix.Add(1, 100, 11, "/b")
	ix.Add(1, 200, 12, "/c")
	ix.Add(2, 100, 10, "/other-dev")

	assert.Equal(t, []uint64{1, 2}, keysOf(ix.Devices))

	sizes, ok := ix.Devices.Get(1)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 200}, keysOf(sizes))

	contents, ok := sizes.Get(100)
	require.True(t, ok)
	inodes, ok := contents.Get(Unhashed)
	require.True(t, ok)
	assert.Equal(t, []uint64{10, 11}, keysOf(inodes))

	paths, ok := inodes.Get(10)
	require.True(t, ok)
	assert.Equal(t, PathList{"/a", "/a-link"}, *paths)

	n, p := ix.Counts()
	assert.Equal(t, 4, n)
	assert.Equal(t, 5, p)
}

func TestRekey(t *testing.T) {
	contents := NewContentMap()
	AddPath(contents, Unhashed, 10, "/a")
	unhashed, _ := contents.Get(Unhashed)
	paths, _ := unhashed.Get(10)

	Rekey(contents, "digest", 10, paths)
	contents.Delete(Unhashed)

	assert.Equal(t, []string{"digest"}, keysOf(contents))
	hashed, _ := contents.Get("digest")
	moved, ok := hashed.Get(10)
	require.True(t, ok)
	assert.Same(t, paths, moved)
}

// keysOf collects the keys of m in ascending order.
func keysOf[K cmp.Ordered, V any](m *Map[K, V]) []K {
	var keys []K
	m.Ascend(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
