package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_SubmitAndRun(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 10}, nil)
	defer p.Shutdown(context.Background())

	var n atomic.Int64
	done := make(chan struct{})
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		n.Add(1)
		close(done)
		return nil
	})
	assert.Nil(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.Equal(t, int64(1), n.Load())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := New(nil, nil)
	assert.Nil(t, p.Shutdown(context.Background()))

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerPoolClosed)
}

func TestPool_QueueFull(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	block := make(chan struct{})
	// 占住唯一 worker
	_ = p.Submit(context.Background(), func(ctx context.Context) error {
		<-block
		return nil
	})

	// 填满队列后再提交必须失败
	var full bool
	for i := 0; i < 10; i++ {
		if err := p.Submit(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
			assert.ErrorIs(t, err, ErrWorkerPoolFull)
			full = true
			break
		}
	}
	close(block)
	assert.True(t, full)
}
