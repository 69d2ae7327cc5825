// Package autosave debounces saves of an edited document. A save fires after
// delay of quiet, but never later than maxWait after the first unsaved change.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type SaveFunc func(ctx context.Context) error

type Debouncer struct {
	delay   time.Duration
	maxWait time.Duration
	save    SaveFunc
	onError func(error)
	now     func() time.Time

	saveMu sync.Mutex

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64
	dirty      bool
	firstDirty time.Time
	stopped    bool
}

type Option func(*Debouncer)

// WithErrorHandler is called when a timer-driven save fails. Errors of Flush
// and Stop are returned to the caller instead.
func WithErrorHandler(fn func(error)) Option {
	return func(d *Debouncer) { d.onError = fn }
}

// New creates a debouncer. maxWait <= 0 disables the floor, leaving a plain
// trailing debounce.
func New(delay, maxWait time.Duration, save SaveFunc, opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:   delay,
		maxWait: maxWait,
		save:    save,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger records an unsaved change and (re)arms the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	now := d.now()
	if !d.dirty {
		d.dirty = true
		d.firstDirty = now
	}
	wait := d.delay
	if d.maxWait > 0 {
		if remain := d.firstDirty.Add(d.maxWait).Sub(now); remain < wait {
			wait = remain
		}
	}
	if wait < 0 {
		wait = 0
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Flush saves right away if there are unsaved changes, otherwise it waits
// for a save already in progress.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if !d.dirty {
		d.mu.Unlock()
		d.saveMu.Lock()
		d.saveMu.Unlock()
		return nil
	}
	d.takeLocked()
	d.mu.Unlock()
	return d.run(ctx)
}

// Stop flushes pending changes and ignores later triggers.
func (d *Debouncer) Stop(ctx context.Context) error {
	err := d.Flush(ctx)
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	return err
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.dirty {
		d.mu.Unlock()
		return
	}
	d.takeLocked()
	d.mu.Unlock()

	ctx := context.Background()
	if err := d.run(ctx); err != nil {
		if d.onError != nil {
			d.onError(err)
			return
		}
		logutil.GetLogger(ctx).Error("autosave failed", zap.Error(err))
	}
}

func (d *Debouncer) takeLocked() {
	d.dirty = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// run performs one save. A failed save leaves the document dirty so the next
// Trigger or Flush retries it.
func (d *Debouncer) run(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()
	err := d.save(ctx)
	if err != nil {
		d.mu.Lock()
		if !d.dirty {
			d.dirty = true
			d.firstDirty = d.now()
		}
		d.mu.Unlock()
	}
	return err
}
