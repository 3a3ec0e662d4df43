package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg *Config) *Pool {
	t.Helper()
	p := New(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p
}

func TestSubmitReturnsTaskError(t *testing.T) {
	p := newTestPool(t, nil)

	require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
		return nil
	}))

	wantErr := errors.New("boom")
	err := p.Submit(context.Background(), func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestSubmitAsyncExecutes(t *testing.T) {
	p := newTestPool(t, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		wg.Done()
		return nil
	}))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async task did not run")
	}
}

func TestSubmitCancelledContextSkipsTask(t *testing.T) {
	p := newTestPool(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Submit(ctx, func(context.Context) error {
		t.Fatal("cancelled task must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitQueueFull(t *testing.T) {
	// 单 worker 单队列：一个任务占住 worker，一个占住队列
	p := newTestPool(t, &Config{MaxWorkers: 1, QueueSize: 1})

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		<-block
		return nil
	}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		return nil
	}))

	err := p.SubmitAsync(context.Background(), func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrWorkerPoolFull)
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 16}, nil)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 8; i++ {
		require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	mu.Lock()
	assert.Equal(t, 8, ran)
	mu.Unlock()

	err := p.SubmitAsync(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerPoolClosed)

	// 重复关闭幂等
	require.NoError(t, p.Shutdown(ctx))
}
