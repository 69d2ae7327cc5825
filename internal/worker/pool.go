package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrBusy      = errors.New("key already has a task in flight")
	ErrQueueFull = errors.New("worker queue is full")
	ErrStopped   = errors.New("worker pool stopped")
)

type TaskFunc func(ctx context.Context)

type task struct {
	key string
	fn  TaskFunc
}

// Pool runs tasks on a fixed number of goroutines. At most one task per key
// is queued or running at any time.
type Pool struct {
	name   string
	queue  chan task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	active  map[string]struct{}
	stopped bool
}

func NewPool(name string, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		queue:  make(chan task, queueSize),
		ctx:    ctx,
		cancel: cancel,
		active: make(map[string]struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	return p
}

func (p *Pool) Submit(key string, fn TaskFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if _, ok := p.active[key]; ok {
		return ErrBusy
	}
	select {
	case p.queue <- task{key: key, fn: fn}:
		p.active[key] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// Busy reports whether key has a queued or running task.
func (p *Pool) Busy(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[key]
	return ok
}

// Stop cancels the context handed to running tasks, drops queued ones and
// waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) loop(idx int) {
	defer p.wg.Done()
	for t := range p.queue {
		if p.ctx.Err() == nil {
			p.run(idx, t)
		}
		p.mu.Lock()
		delete(p.active, t.key)
		p.mu.Unlock()
	}
}

func (p *Pool) run(idx int, t task) {
	logger := logutil.GetLogger(p.ctx).With(zap.String("pool", p.name), zap.Int("worker", idx), zap.String("key", t.key))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", zap.Any("panic", r))
		}
	}()
	t.fn(p.ctx)
	logger.Debug("task finished", zap.Duration("duration", time.Since(start)))
}
