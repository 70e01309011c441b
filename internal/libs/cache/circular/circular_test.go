package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	cache := New(2)
	assert.Equal(t, int32(0), cache.head)

	cache.Insert("1")
	assert.Equal(t, int32(1), cache.head)
	assert.Equal(t, int32(1), cache.Len())

	cache.Insert("2")
	assert.Equal(t, int32(0), cache.head) // Wrapped around

	cache.Insert("3") // Overwrites oldest
	assert.Equal(t, int32(1), cache.head)
	assert.Equal(t, int32(2), cache.Len())

	last, idx := cache.Tail()
	assert.Equal(t, "3", last)
	assert.Equal(t, int32(0), idx)
}

func TestSorted(t *testing.T) {
	cache := New(3)
	cache.Insert(1)
	cache.Insert(2)
	cache.Insert(3)
	cache.Insert(4) // Overwrites oldest (1)

	sorted := cache.Sorted()
	assert.Equal(t, []interface{}{2, 3, 4}, sorted)
}

func TestLatest(t *testing.T) {
	cache := New(4)
	cache.Insert(1)
	cache.Insert(2)
	cache.Insert(3)

	latest := cache.Latest(2)
	assert.Equal(t, []interface{}{3, 2}, latest)

	latest = cache.Latest(0)
	assert.Equal(t, []interface{}{3, 2, 1}, latest)

	cache.Insert(4)
	cache.Insert(5) // Overwrites oldest (1)

	latest = cache.Latest(10)
	assert.Equal(t, []interface{}{5, 4, 3, 2}, latest)
}
