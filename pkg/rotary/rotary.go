// Package rotary implements an infinite cyclic iterator over a fixed
// slice, used by the LoadBalancer's round-robin enqueue and by the
// pipeline's extractor fan-in. Each step is a single modulo
// operation; it is never a hot-spinning generator.
package rotary

import "math/rand"

// Rotary cycles through a fixed slice of items forever.
type Rotary[T any] struct {
	items []T
	pos   int
}

// New returns a Rotary over items, starting at index 0.
func New[T any](items []T) *Rotary[T] {
	return &Rotary[T]{items: items}
}

// NewRandom returns a Rotary over a copy of items whose order is
// shuffled once at construction; subsequent calls to Next cycle that
// fixed order deterministically, one position each time.
func NewRandom[T any](items []T) *Rotary[T] {
	if len(items) == 0 {
		return &Rotary[T]{}
	}
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &Rotary[T]{items: shuffled}
}

// Next returns the next item in rotation.
func (r *Rotary[T]) Next() T {
	v := r.items[r.pos]
	r.pos = (r.pos + 1) % len(r.items)
	return v
}

// Len reports the number of distinct items being cycled.
func (r *Rotary[T]) Len() int {
	return len(r.items)
}

// Each calls fn once per item, starting at the current rotation
// position and advancing exactly Len() times. It stops early and
// returns true the first time fn returns true (e.g. "accepted").
func (r *Rotary[T]) Each(fn func(T) bool) bool {
	n := r.Len()
	for i := 0; i < n; i++ {
		if fn(r.Next()) {
			return true
		}
	}
	return false
}
