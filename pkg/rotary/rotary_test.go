package rotary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextCycles(t *testing.T) {
	r := New([]int{1, 2, 3})

	got := []int{r.Next(), r.Next(), r.Next(), r.Next()}
	assert.Equal(t, []int{1, 2, 3, 1}, got)
}

func TestEachStopsOnAccept(t *testing.T) {
	r := New([]string{"a", "b", "c"})

	var tried []string
	ok := r.Each(func(v string) bool {
		tried = append(tried, v)
		return v == "b"
	})

	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tried)
}

func TestEachExhaustsWithoutAccept(t *testing.T) {
	r := New([]int{1, 2})

	calls := 0
	ok := r.Each(func(int) bool {
		calls++
		return false
	})

	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestNewRandomPreservesMembership(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	r := NewRandom(items)

	seen := make(map[int]bool)
	for i := 0; i < r.Len(); i++ {
		seen[r.Next()] = true
	}

	assert.Equal(t, len(items), len(seen))
	for _, item := range items {
		assert.True(t, seen[item])
	}
}
