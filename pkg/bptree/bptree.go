// Package bptree provides an in-memory B+tree with ordered scans.
package bptree

import (
	"cmp"
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// BPlusTree maps ordered keys to values. Leaves are linked for range scans.
// It is safe for concurrent use; scans hold a read lock while the visitor runs.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	m      sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates and returns a B+Tree with the given order.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order),
			values: make([]V, 0, order),
		},
		order:  order,
		height: 1,
	}
}

// Height returns the number of levels, 1 for a single leaf.
func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys stored.
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// findChildIndex determines which child pointer to follow in an internal node.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	return sort.Search(len(keys), func(i int) bool { return searchKey < keys[i] })
}

// findLeaf descends to the leaf that holds or would hold key.
func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[findChildIndex(current.keys, key)]
	}
	return current
}

func (tree *BPlusTree[K, V]) firstLeaf() *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// Search locates the value associated with key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	i, found := sort.Find(len(leaf.keys), func(i int) int { return cmp.Compare(key, leaf.keys[i]) })
	if !found {
		var zero V
		return zero, false
	}
	return leaf.values[i], true
}

// Insert adds a (key, value) pair, replacing the value of an existing key.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	if !insertKeyValueInLeaf(leaf, key, value) {
		return
	}
	tree.size++

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// insertKeyValueInLeaf reports whether key was new.
func insertKeyValueInLeaf[K cmp.Ordered, V any](leaf *node[K, V], key K, value V) bool {
	idx, found := sort.Find(len(leaf.keys), func(i int) int { return cmp.Compare(key, leaf.keys[i]) })
	if found {
		leaf.values[idx] = value
		return false
	}

	var zeroK K
	var zeroV V
	leaf.keys = append(leaf.keys, zeroK)
	leaf.values = append(leaf.values, zeroV)
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.keys[idx] = key
	leaf.values[idx] = value
	return true
}

// Delete removes key and reports whether it was present. Leaves are not
// merged; an emptied leaf stays linked and is skipped by scans.
func (tree *BPlusTree[K, V]) Delete(key K) bool {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	idx, found := sort.Find(len(leaf.keys), func(i int) int { return cmp.Compare(key, leaf.keys[i]) })
	if !found {
		return false
	}
	leaf.keys = append(leaf.keys[:idx], leaf.keys[idx+1:]...)
	leaf.values = append(leaf.values[:idx], leaf.values[idx+1:]...)
	tree.size--
	return true
}

// Ascend calls fn for every key >= start in ascending order until fn
// returns false.
func (tree *BPlusTree[K, V]) Ascend(start K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(start)
	idx := sort.Search(len(leaf.keys), func(i int) bool { return leaf.keys[i] >= start })
	tree.scan(leaf, idx, fn)
}

// AscendAll calls fn for every key in ascending order until fn returns false.
func (tree *BPlusTree[K, V]) AscendAll(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	tree.scan(tree.firstLeaf(), 0, fn)
}

// Range calls fn for every key in [start, end) in ascending order until fn
// returns false.
func (tree *BPlusTree[K, V]) Range(start, end K, fn func(key K, value V) bool) {
	if end <= start {
		return
	}
	tree.Ascend(start, func(k K, v V) bool {
		if k >= end {
			return false
		}
		return fn(k, v)
	})
}

func (tree *BPlusTree[K, V]) scan(leaf *node[K, V], idx int, fn func(K, V) bool) {
	for leaf != nil {
		for ; idx < len(leaf.keys); idx++ {
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
		leaf = leaf.next
		idx = 0
	}
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	newLeaf := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}

	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = newLeaf

	tree.insertInParent(leaf, newLeaf.keys[0], newLeaf)
}

// insertInParent links right after left under separator key, growing a new
// root when left has no parent.
func (tree *BPlusTree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		newRoot := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = newRoot
		right.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	idx := findChildIndex(parent.keys, key)

	var zeroK K
	parent.keys = append(parent.keys, zeroK)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, nil)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right
	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternalNode(parent)
	}
}

// splitInternalNode handles splitting an internal node that has overflowed.
func (tree *BPlusTree[K, V]) splitInternalNode(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range newInternal.children {
		child.parent = newInternal
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	tree.insertInParent(internal, splitKey, newInternal)
}
