package groupindex

import (
	"cmp"

	"github.com/google/btree"
)

const degree = 16

type entry[K cmp.Ordered, V any] struct {
	key K
	val V
}

// Map is an ordered map iterated by ascending key.
// It is not safe for concurrent mutation.
type Map[K cmp.Ordered, V any] struct {
	tree *btree.BTreeG[*entry[K, V]]
}

func NewMap[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{
		tree: btree.NewG(degree, func(a, b *entry[K, V]) bool {
			return a.key < b.key
		}),
	}
}

func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	if e, ok := m.tree.Get(&entry[K, V]{key: k}); ok {
		return e.val, true
	}

	var zero V
	return zero, false
}

func (m *Map[K, V]) Set(k K, v V) {
	if e, ok := m.tree.Get(&entry[K, V]{key: k}); ok {
		e.val = v
		return
	}

	m.tree.ReplaceOrInsert(&entry[K, V]{key: k, val: v})
}

// GetOrInsert returns the value under k, storing create() first on a miss.
func (m *Map[K, V]) GetOrInsert(k K, create func() V) V {
	if e, ok := m.tree.Get(&entry[K, V]{key: k}); ok {
		return e.val
	}

	v := create()
	m.tree.ReplaceOrInsert(&entry[K, V]{key: k, val: v})
	return v
}

func (m *Map[K, V]) Delete(k K) bool {
	_, ok := m.tree.Delete(&entry[K, V]{key: k})
	return ok
}

// Ascend calls fn in ascending key order until fn returns false.
func (m *Map[K, V]) Ascend(fn func(k K, v V) bool) {
	m.tree.Ascend(func(e *entry[K, V]) bool {
		return fn(e.key, e.val)
	})
}

// Descend calls fn in descending key order until fn returns false.
func (m *Map[K, V]) Descend(fn func(k K, v V) bool) {
	m.tree.Descend(func(e *entry[K, V]) bool {
		return fn(e.key, e.val)
	})
}
