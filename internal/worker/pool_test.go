package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsTasks(t *testing.T) {
	p := NewPool("test", 2, 4)
	defer p.Stop()

	var count atomic.Int32
	done := make(chan struct{}, 3)
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, p.Submit(key, func(ctx context.Context) {
			count.Add(1)
			done <- struct{}{}
		}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}
	require.EqualValues(t, 3, count.Load())
}

func TestPoolOneTaskPerKey(t *testing.T) {
	p := NewPool("test", 1, 4)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit("conv", func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.True(t, p.Busy("conv"))
	require.ErrorIs(t, p.Submit("conv", func(ctx context.Context) {}), ErrBusy)
	close(release)

	require.Eventually(t, func() bool { return !p.Busy("conv") }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Submit("conv", func(ctx context.Context) {}))
}

func TestPoolQueueFull(t *testing.T) {
	p := NewPool("test", 1, 1)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit("a", func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit("b", func(ctx context.Context) {}))
	require.ErrorIs(t, p.Submit("c", func(ctx context.Context) {}), ErrQueueFull)
	close(release)
}

func TestPoolStopCancelsRunning(t *testing.T) {
	p := NewPool("test", 1, 1)
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, p.Submit("a", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))
	<-started
	p.Stop()
	select {
	case <-cancelled:
	default:
		t.Fatal("running task was not cancelled")
	}
	require.ErrorIs(t, p.Submit("b", func(ctx context.Context) {}), ErrStopped)
}

func TestPoolRecoversPanic(t *testing.T) {
	p := NewPool("test", 1, 2)
	defer p.Stop()
	require.NoError(t, p.Submit("a", func(ctx context.Context) { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, p.Submit("b", func(ctx context.Context) { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
}
