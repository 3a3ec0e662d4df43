package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfg *Config) *Manager {
	t.Helper()
	m := New(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestExecuteRunsOperation(t *testing.T) {
	m := newTestManager(t, nil)

	ran := false
	err := m.Execute(context.Background(), "ws-1", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestExecuteFIFOPerWorkspace(t *testing.T) {
	m := newTestManager(t, nil)

	// 同一工作区的操作并发提交，执行顺序应与入队顺序一致
	const n = 20
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			<-start
			// 入队顺序由外层串行化保证
			_ = m.Execute(context.Background(), "ws-1", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// 错开提交时间，保证入队顺序确定
		close(start)
		start = make(chan struct{})
		time.Sleep(time.Millisecond)
	}
	close(start)
	wg.Wait()

	require.Len(t, order, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestExecuteQueueFull(t *testing.T) {
	m := newTestManager(t, &Config{QueueCapacity: 1, WriteTimeout: time.Second})

	block := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "ws-1", func() error {
			<-block
			return nil
		})
	}()
	time.Sleep(50 * time.Millisecond)

	// 第一个操作占住 worker，填满容量为 1 的队列
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- m.Execute(context.Background(), "ws-1", func() error { return nil })
		}()
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, m.QueuedCount("ws-1"))

	var gotFull bool
	select {
	case err := <-errs:
		gotFull = assert.ErrorIs(t, err, ErrWriteQueueFull)
	case <-time.After(time.Second):
	}
	assert.True(t, gotFull)

	close(block)
}

func TestExecuteContextCancelled(t *testing.T) {
	m := newTestManager(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Execute(ctx, "ws-1", func() error {
		t.Fatal("cancelled operation must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteTimeout(t *testing.T) {
	m := newTestManager(t, &Config{WriteTimeout: 50 * time.Millisecond})

	block := make(chan struct{})
	defer close(block)
	go func() {
		_ = m.Execute(context.Background(), "ws-1", func() error {
			<-block
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	err := m.Execute(context.Background(), "ws-1", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteTimeout)
}

func TestWorkspacesAreIndependent(t *testing.T) {
	m := newTestManager(t, nil)

	block := make(chan struct{})
	defer close(block)
	go func() {
		_ = m.Execute(context.Background(), "ws-1", func() error {
			<-block
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	// ws-1 被占住不应阻塞 ws-2
	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), "ws-2", func() error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("independent workspace blocked")
	}

	assert.GreaterOrEqual(t, m.QueueCount(), 2)
}

func TestShutdown(t *testing.T) {
	m := New(nil, nil)

	err := m.Execute(context.Background(), "ws-1", func() error { return nil })
	require.NoError(t, err)

	assert.False(t, m.IsClosed())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	assert.True(t, m.IsClosed())

	err = m.Execute(context.Background(), "ws-1", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)

	// 重复关闭幂等
	require.NoError(t, m.Shutdown(ctx))
}

func TestGetMetrics(t *testing.T) {
	m := newTestManager(t, &Config{QueueCapacity: 7})

	require.NoError(t, m.Execute(context.Background(), "ws-1", func() error { return nil }))

	got := m.GetMetrics()
	assert.Equal(t, 7, got.QueueCapacity)
	assert.Equal(t, 1, got.ActiveQueues)
	assert.False(t, got.IsClosed)
}
