package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	start := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	c := NewFixed(start)
	assert.Equal(t, start, c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())

	other := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(other)
	assert.Equal(t, other, c.Now())
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", DayKey(ts))
	assert.Equal(t, "2026-03-02", DayKey(ts.Add(time.Hour)))
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got := System{}.Now()
	assert.False(t, got.Before(before))
}
