// Package schedule runs background jobs on cron specs.
package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrJobExists   = errors.New("job already scheduled")
	ErrJobNotFound = errors.New("job not scheduled")
	ErrStopped     = errors.New("scheduler stopped")
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	RunNow(name string) error
	Start(ctx context.Context)
	Stop()
}

// scheduledJob guards a job against overlapping runs, whichever of cron or
// RunNow started them.
type scheduledJob struct {
	job     Job
	spec    string
	running atomic.Bool
}

func (s *scheduledJob) run(ctx context.Context) {
	logger := logutil.GetLogger(ctx).With(zap.String("job", s.job.Name()), zap.String("spec", s.spec))
	if !s.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	logger.Debug("job started")
	if err := s.job.Run(ctx); err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Debug("job finished", zap.Duration("duration", time.Since(start)))
}

// CronScheduler runs jobs on 5-field cron specs. Stop waits for cron runs
// and for runs started by RunNow.
type CronScheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	ctx     context.Context
	stopped bool
	manual  sync.WaitGroup
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*scheduledJob),
		ctx:  context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[name]; ok {
		return ErrJobExists
	}
	sj := &scheduledJob{job: job, spec: spec}
	if _, err := c.cron.AddFunc(spec, func() { sj.run(c.runContext()) }); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	c.jobs[name] = sj
	logger.Info("job scheduled")
	return nil
}

// RunNow starts one run of a scheduled job in the background.
func (c *CronScheduler) RunNow(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	sj, ok := c.jobs[name]
	if !ok {
		return ErrJobNotFound
	}
	ctx := c.ctx
	c.manual.Add(1)
	go func() {
		defer c.manual.Done()
		sj.run(ctx)
	}()
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.mu.Lock()
		c.ctx = ctx
		c.mu.Unlock()
	}
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	<-c.cron.Stop().Done()
	c.manual.Wait()
}

func (c *CronScheduler) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}
