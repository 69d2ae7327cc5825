package autosave

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type counter struct {
	n   int32
	err error
}

func (c *counter) save(ctx context.Context) error {
	atomic.AddInt32(&c.n, 1)
	return c.err
}

func (c *counter) count() int32 {
	return atomic.LoadInt32(&c.n)
}

func TestTriggerCoalescesBurst(t *testing.T) {
	c := &counter{}
	d := New(30*time.Millisecond, 0, c.save)
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, int32(0), c.count())
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), c.count())
	require.False(t, d.Pending())
}

func TestMaxWaitForcesSaveDuringSteadyEdits(t *testing.T) {
	c := &counter{}
	d := New(40*time.Millisecond, 100*time.Millisecond, c.save)
	deadline := time.Now().Add(320 * time.Millisecond)
	for time.Now().Before(deadline) {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	require.GreaterOrEqual(t, c.count(), int32(2))
	require.NoError(t, d.Stop(context.Background()))
}

func TestFlushSavesImmediately(t *testing.T) {
	c := &counter{}
	d := New(time.Hour, 0, c.save)
	d.Trigger()
	require.NoError(t, d.Flush(context.Background()))
	require.Equal(t, int32(1), c.count())

	require.NoError(t, d.Flush(context.Background()))
	require.Equal(t, int32(1), c.count())
}

func TestStopFlushesAndIgnoresLaterTriggers(t *testing.T) {
	c := &counter{}
	d := New(time.Hour, 0, c.save)
	d.Trigger()
	require.NoError(t, d.Stop(context.Background()))
	require.Equal(t, int32(1), c.count())

	d.Trigger()
	require.False(t, d.Pending())
}

func TestFailedSaveStaysDirty(t *testing.T) {
	c := &counter{err: errors.New("offline")}
	var reported atomic.Value
	d := New(10*time.Millisecond, 0, c.save, WithErrorHandler(func(err error) { reported.Store(err) }))
	d.Trigger()
	require.Eventually(t, func() bool { return reported.Load() != nil }, time.Second, 5*time.Millisecond)
	require.True(t, d.Pending())

	c.err = nil
	require.NoError(t, d.Flush(context.Background()))
	require.False(t, d.Pending())
	require.Equal(t, int32(2), c.count())
}
