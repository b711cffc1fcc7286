// Package writequeue provides per-key write queue implementation
// Package writequeue 提供按键串行化的写队列实现
// Used to serialize primary-store writes for the same keyspace key,
// preserving the single-logical-writer guarantee and avoiding
// "database is locked" on SQLite
// 用于串行化同一持久化键的主存储写操作，保持单逻辑写者语义，
// 同时规避 SQLite 的 "database is locked" 问题
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// 错误定义
var (
	// ErrWriteQueueFull 当写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity 每个键的队列容量，默认 64
	QueueCapacity int
	// WriteTimeout 写操作超时时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 空闲队列回收时间，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 64,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// keyWriteQueue 单键写队列，由一个 worker 顺序消费
type keyWriteQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	stopCh   chan struct{}
	workerWg sync.WaitGroup
}

// Manager 管理所有键的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[string]*keyWriteQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	cleanupWg sync.WaitGroup
}

// New 创建写队列管理器
// cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Manager {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config: *cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	m.cleanupWg.Add(1)
	go m.cleanupLoop()

	return m
}

// Execute 在指定键的串行队列里执行写操作并等待结果
// 同一键上的操作严格按提交顺序执行
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrWriteQueueClosed
	}
	m.mu.RUnlock()

	q := m.queue(key)

	op := writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case q.ch <- op:
	default:
		return ErrWriteQueueFull
	}

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-op.result:
		return err
	case <-timer.C:
		return ErrWriteTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) queue(key string) *keyWriteQueue {
	if v, ok := m.queues.Load(key); ok {
		q := v.(*keyWriteQueue)
		q.lastUsed.Store(time.Now().UnixNano())
		return q
	}

	q := &keyWriteQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	q.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := m.queues.LoadOrStore(key, q)
	if loaded {
		return actual.(*keyWriteQueue)
	}

	q.workerWg.Add(1)
	go m.worker(q)
	return q
}

func (m *Manager) worker(q *keyWriteQueue) {
	defer q.workerWg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-q.stopCh:
			return
		case op := <-q.ch:
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.logger.Error("write queue op panic",
							zap.String("key", q.key), zap.Any("panic", r))
						op.result <- ErrWriteQueueClosed
					}
				}()
				if op.ctx != nil && op.ctx.Err() != nil {
					op.result <- op.ctx.Err()
					return
				}
				op.result <- op.fn()
			}()
			q.lastUsed.Store(time.Now().UnixNano())
		}
	}
}

// cleanupLoop 定期回收空闲队列
func (m *Manager) cleanupLoop() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(-m.config.IdleTimeout).UnixNano()
			m.queues.Range(func(k, v any) bool {
				q := v.(*keyWriteQueue)
				if q.lastUsed.Load() < deadline && len(q.ch) == 0 && q.closed.CompareAndSwap(false, true) {
					close(q.stopCh)
					m.queues.Delete(k)
				}
				return true
			})
		}
	}
}

// Shutdown 关闭管理器，等待各队列 worker 退出
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.queues.Range(func(k, v any) bool {
			q := v.(*keyWriteQueue)
			q.workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
