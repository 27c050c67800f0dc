package pipeline

import (
	"sync"
	"time"

	"github.com/crimson-sun/timber/internal/model"
)

// streamBuffer collects traces between batch flushes. Traces are keyed by
// source so a rewritten file is analyzed once, at its latest version.
type streamBuffer struct {
	window  time.Duration
	maxSize int // 0 means unlimited

	mu      sync.Mutex
	pending []model.RawTrace
	index   map[string]int
	timer   *time.Timer
}

func newStreamBuffer(window time.Duration, maxSize int) *streamBuffer {
	return &streamBuffer{
		window:  window,
		maxSize: maxSize,
		index:   make(map[string]int),
	}
}

// add queues a trace, starting the flush timer on the first one.
// Returns true if the buffer is full and needs flushing.
func (b *streamBuffer) add(raw model.RawTrace) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.index[raw.Source]; ok && raw.Source != "" {
		b.pending[i] = raw
		return false
	}
	b.index[raw.Source] = len(b.pending)
	b.pending = append(b.pending, raw)
	if len(b.pending) == 1 {
		b.timer = time.NewTimer(b.window)
	}
	return b.maxSize > 0 && len(b.pending) >= b.maxSize
}

// flushCh returns the timer's channel, or nil if no timer is active.
func (b *streamBuffer) flushCh() <-chan time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer == nil {
		return nil
	}
	return b.timer.C
}

// take empties the buffer and stops the timer.
func (b *streamBuffer) take() []model.RawTrace {
	b.mu.Lock()
	defer b.mu.Unlock()
	raws := b.pending
	b.pending = nil
	clear(b.index)
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return raws
}
