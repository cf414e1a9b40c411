// Package navigation tracks the reviewer's position within the loaded corpus.
package navigation

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when the total is re-set to a different value.
var ErrInvalidState = errors.New("invalid counter state")

// Counter holds the current document index and an optional total.
// The zero value is a counter at index 0 with no total.
type Counter struct {
	index    int
	total    int
	hasTotal bool
}

// NewCounter returns a counter at index 0 with no total.
func NewCounter() *Counter {
	return &Counter{}
}

// Index returns the current index.
func (c *Counter) Index() int {
	return c.index
}

// Total returns the total and whether it has been set.
func (c *Counter) Total() (int, bool) {
	return c.total, c.hasTotal
}

// SetTotal fixes the valid index range to [0, n-1]. Setting the same total
// again is a no-op; a different one fails with ErrInvalidState.
func (c *Counter) SetTotal(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative total %d", ErrInvalidState, n)
	}
	if c.hasTotal {
		if c.total != n {
			return fmt.Errorf("%w: total already set to %d, cannot change to %d", ErrInvalidState, c.total, n)
		}
		return nil
	}
	c.total = n
	c.hasTotal = true
	c.index = c.clamp(c.index)
	return nil
}

// Next advances by one, clamping at total-1 when the total is known.
func (c *Counter) Next() int {
	c.index = c.clamp(c.index + 1)
	return c.index
}

// Previous moves back by one, never below 0.
func (c *Counter) Previous() int {
	c.index = c.clamp(c.index - 1)
	return c.index
}

// Seek jumps to i, clamped into the valid range.
func (c *Counter) Seek(i int) int {
	c.index = c.clamp(i)
	return c.index
}

func (c *Counter) clamp(i int) int {
	if c.hasTotal && i > c.total-1 {
		i = c.total - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
