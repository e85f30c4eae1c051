package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsTasks(t *testing.T) {
	p := New(2, zerolog.Nop())
	var n atomic.Int32

	for i := 0; i < 10; i++ {
		id, err := p.Submit("count", func(context.Context) { n.Add(1) })
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}
	p.Wait()
	assert.Equal(t, int32(10), n.Load())
}

func TestPool_SubmitDoesNotBlock(t *testing.T) {
	p := New(1, zerolog.Nop())
	release := make(chan struct{})

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := p.Submit("block", func(context.Context) { <-release })
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	p.Wait()
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New(3, zerolog.Nop())
	var running, peak atomic.Int32

	for i := 0; i < 20; i++ {
		_, err := p.Submit("busy", func(context.Context) {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
		require.NoError(t, err)
	}
	p.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPool_SurvivesPanic(t *testing.T) {
	p := New(1, zerolog.Nop())
	var ran atomic.Bool

	_, err := p.Submit("boom", func(context.Context) { panic("boom") })
	require.NoError(t, err)
	_, err = p.Submit("after", func(context.Context) { ran.Store(true) })
	require.NoError(t, err)

	p.Wait()
	assert.True(t, ran.Load())
}

func TestPool_TaskContextOutlivesCaller(t *testing.T) {
	p := New(1, zerolog.Nop())
	_, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var taskErr atomic.Value

	_, err := p.Submit("detached", func(ctx context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		taskErr.Store(ctx.Err() == nil)
	})
	require.NoError(t, err)
	<-started
	cancel() // the request finishing must not cancel the task

	p.Wait()
	assert.Equal(t, true, taskErr.Load())
}

func TestPool_StopDrains(t *testing.T) {
	p := New(2, zerolog.Nop())
	var n atomic.Int32
	for i := 0; i < 4; i++ {
		_, err := p.Submit("work", func(context.Context) {
			time.Sleep(10 * time.Millisecond)
			n.Add(1)
		})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, int32(4), n.Load())

	_, err := p.Submit("late", func(context.Context) {})
	assert.ErrorIs(t, err, ErrStopped)
	assert.NoError(t, p.Stop(ctx), "second stop is a no-op")
}

func TestPool_StopCancelsOnDeadline(t *testing.T) {
	p := New(1, zerolog.Nop())
	var cancelled atomic.Bool

	_, err := p.Submit("slow", func(ctx context.Context) {
		<-ctx.Done()
		cancelled.Store(true)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, cancelled.Load())
}
