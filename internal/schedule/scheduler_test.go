package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countJob struct {
	name  string
	runs  atomic.Int32
	done  atomic.Int32
	block chan struct{}
}

func (j *countJob) Name() string {
	return j.name
}

func (j *countJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	j.done.Add(1)
	return nil
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countJob{name: "bad"}, "not a spec"))
}

func TestAddJobRejectsDuplicate(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countJob{name: "dup"}, "*/5 * * * *"))
	require.ErrorIs(t, s.AddJob(&countJob{name: "dup"}, "*/5 * * * *"), ErrJobExists)
}

func TestRunNow(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "now"}
	require.NoError(t, s.AddJob(job, "0 0 1 1 *"))
	require.ErrorIs(t, s.RunNow("missing"), ErrJobNotFound)
	require.NoError(t, s.RunNow("now"))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 0 1 1 *"))
	require.NoError(t, s.RunNow("slow"))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.RunNow("slow"))
	time.Sleep(50 * time.Millisecond)
	close(job.block)
	require.Equal(t, int32(1), job.runs.Load())
}

func TestStopWaitsForManualRun(t *testing.T) {
	s := NewCronScheduler()
	s.Start(context.Background())
	job := &countJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 0 1 1 *"))
	require.NoError(t, s.RunNow("slow"))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)

	time.AfterFunc(50*time.Millisecond, func() { close(job.block) })
	s.Stop()
	require.Equal(t, int32(1), job.done.Load())
	require.ErrorIs(t, s.RunNow("slow"), ErrStopped)
}
