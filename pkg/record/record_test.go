package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepGetDeepSet(t *testing.T) {
	r := New()
	r = DeepSet(r, KeyPath{"file", "path"}, "/t/a.txt")

	v, ok := DeepGet(r, KeyPath{"file", "path"})
	assert.True(t, ok)
	assert.Equal(t, "/t/a.txt", v)

	_, ok = DeepGet(r, KeyPath{"file", "missing"})
	assert.False(t, ok)
}

func TestDeepGetWholeRecord(t *testing.T) {
	r := Record{"word": "alpha"}
	v, ok := DeepGet(r, nil)
	assert.True(t, ok)
	assert.Equal(t, r, v)
}

func TestDeepSetDoesNotMutateOriginal(t *testing.T) {
	r := Record{"a": Record{"b": 1}}
	r2 := DeepSet(r, KeyPath{"a", "b"}, 2)

	orig, _ := DeepGet(r, KeyPath{"a", "b"})
	updated, _ := DeepGet(r2, KeyPath{"a", "b"})

	assert.Equal(t, 1, orig)
	assert.Equal(t, 2, updated)
}

func TestDeepRemove(t *testing.T) {
	r := Record{"a": Record{"b": 1, "c": 2}}
	r2 := DeepRemove(r, KeyPath{"a", "b"})

	_, ok := DeepGet(r2, KeyPath{"a", "b"})
	assert.False(t, ok)

	c, ok := DeepGet(r2, KeyPath{"a", "c"})
	assert.True(t, ok)
	assert.Equal(t, 2, c)

	// original untouched
	b, ok := DeepGet(r, KeyPath{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, 1, b)
}

func TestDeepRemoveNoOpWhenAbsent(t *testing.T) {
	r := Record{"a": 1}
	r2 := DeepRemove(r, KeyPath{"missing"})
	assert.Equal(t, r, r2)
}

func TestClone(t *testing.T) {
	r := Record{"nested": Record{"list": []any{1, 2, Record{"x": "y"}}}}
	c := Clone(r)

	nested := c["nested"].(Record)
	nested["list"] = "overwritten"

	origNested := r["nested"].(Record)
	assert.NotEqual(t, "overwritten", origNested["list"])
}

func TestCopyValues(t *testing.T) {
	src := Record{"file_path": "/t/a.txt"}
	dst := New()

	dst = CopyValues(dst, src, []CopyPair{
		{Dst: KeyPath{"file"}, Src: KeyPath{"file_path"}},
		{Dst: KeyPath{"missing"}, Src: KeyPath{"absent"}},
	})

	v, ok := DeepGet(dst, KeyPath{"file"})
	assert.True(t, ok)
	assert.Equal(t, "/t/a.txt", v)

	_, ok = DeepGet(dst, KeyPath{"missing"})
	assert.False(t, ok)
}
