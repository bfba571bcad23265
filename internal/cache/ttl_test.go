package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time forward explicitly
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestTTLCacheHitAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewWithClock(5*time.Minute, clock)

	c.Set("tenancies", []int{1, 2, 3})

	got, ok := c.Get("tenancies")
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, got)

	// Just before expiry
	clock.Advance(5 * time.Minute)
	_, ok = c.Get("tenancies")
	assert.True(t, ok)

	// Past expiry
	clock.Advance(time.Second)
	_, ok = c.Get("tenancies")
	assert.False(t, ok)
}

func TestTTLCacheMiss(t *testing.T) {
	c := New(time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheOverwriteResetsExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewWithClock(time.Minute, clock)

	c.Set("k", "old")
	clock.Advance(50 * time.Second)
	c.Set("k", "new")
	clock.Advance(30 * time.Second)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}
