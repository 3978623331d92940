// Package history provides bounded per-instrument price buffers.
package history

import (
	"errors"

	"github.com/Jss-on/latentspeed/internal/signal"
)

// ErrInsufficientData reports that a window request exceeds the stored sample count.
var ErrInsufficientData = errors.New("history: insufficient data")

// History is a fixed-capacity ring buffer of ticks ordered by arrival.
// Once full, every push evicts the oldest sample. It is not safe for
// concurrent use; the engine owns each instance from a single goroutine.
type History struct {
	buf  []signal.Tick
	head int
	size int
}

// New returns an empty buffer holding at most capacity samples.
func New(capacity int) *History {
	if capacity < 2 {
		capacity = 2
	}
	return &History{buf: make([]signal.Tick, capacity)}
}

// Cap returns the fixed capacity.
func (h *History) Cap() int { return len(h.buf) }

// Len returns the number of stored samples.
func (h *History) Len() int { return h.size }

// Push appends a tick, evicting the oldest sample when full.
func (h *History) Push(t signal.Tick) {
	if h.size < len(h.buf) {
		h.buf[(h.head+h.size)%len(h.buf)] = t
		h.size++
		return
	}
	h.buf[h.head] = t
	h.head = (h.head + 1) % len(h.buf)
}

// Last returns the most recent sample.
func (h *History) Last() (signal.Tick, bool) {
	if h.size == 0 {
		return signal.Tick{}, false
	}
	return h.at(h.size - 1), true
}

// LastTwo returns the two most recent samples in chronological order.
func (h *History) LastTwo() (prev, last signal.Tick, ok bool) {
	if h.size < 2 {
		return signal.Tick{}, signal.Tick{}, false
	}
	return h.at(h.size - 2), h.at(h.size - 1), true
}

// Latest copies out the n most recent samples in chronological order.
// It returns ErrInsufficientData when fewer than n samples are stored.
func (h *History) Latest(n int) ([]signal.Tick, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > h.size {
		return nil, ErrInsufficientData
	}
	out := make([]signal.Tick, n)
	start := h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.at(start + i)
	}
	return out, nil
}

func (h *History) at(i int) signal.Tick {
	return h.buf[(h.head+i)%len(h.buf)]
}
