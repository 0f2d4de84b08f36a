// Package bag implements the concurrent key->set primitive used by
// UniqueFilter to enforce per-key uniqueness of normalized values.
package bag

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Bag is a mutex-guarded map of sets. All operations are linearizable
// under a single internal mutex; contention is expected to be low
// because bag keys are typically partitioned per input file.
type Bag struct {
	mu   sync.Mutex
	sets map[string]map[uint64]struct{}
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{sets: make(map[string]map[uint64]struct{})}
}

// AddIfAbsent adds value to the set under bagKey and reports whether
// it was newly added (true) or already present (false).
func (b *Bag) AddIfAbsent(bagKey, value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.sets[bagKey]
	if !ok {
		set = make(map[uint64]struct{})
		b.sets[bagKey] = set
	}

	h := hash(value)
	if _, exists := set[h]; exists {
		return false
	}
	set[h] = struct{}{}
	return true
}

// Contains reports whether value has already been recorded under
// bagKey, without modifying the set.
func (b *Bag) Contains(bagKey, value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.sets[bagKey]
	if !ok {
		return false
	}
	_, exists := set[hash(value)]
	return exists
}

// Clear removes the set entry for a single bagKey, leaving other keys
// untouched.
func (b *Bag) Clear(bagKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sets, bagKey)
}

// ClearAll removes every bagKey's set.
func (b *Bag) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets = make(map[string]map[uint64]struct{})
}

// Size returns the number of distinct values recorded for bagKey.
func (b *Bag) Size(bagKey string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sets[bagKey])
}

func hash(value string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(value)
	return h.Sum64()
}
