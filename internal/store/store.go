// Package store 持久存储：同步主存（数据库键空间）加异步二级镜像（对象存储）
// 键为用户名，值为整条 UserRecord，读写始终以整条记录为单位
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/logger"
	"github.com/haierkeys/offline-note-vault/pkg/storage"
	"github.com/haierkeys/offline-note-vault/pkg/workerpool"
	"github.com/haierkeys/offline-note-vault/pkg/writequeue"

	"go.uber.org/zap"
)

// MirrorNamespace 镜像在二级存储中的键前缀，与缓存代隔离
const MirrorNamespace = "mirror"

// ChangeListener 记录变更通知回调，username 为变更的键
type ChangeListener func(username string)

// Config Durable Store 配置
type Config struct {
	// 单条记录体积上限（字节），0 表示不限制
	RecordSizeLimit int64
}

// Store 用户记录持久存储
// 主存写入同步完成，镜像写入异步执行，两者键空间一致
type Store struct {
	repo   domain.KeyspaceRepository
	mirror storage.Storager
	wq     *writequeue.Manager
	wp     *workerpool.Pool
	logger *zap.Logger
	config Config

	mu      sync.RWMutex
	records map[string]*domain.UserRecord

	listenerMu sync.RWMutex
	listeners  []ChangeListener
}

// Option Store 配置选项
type Option func(*Store)

// WithMirror 注入二级镜像存储
func WithMirror(mirror storage.Storager) Option {
	return func(s *Store) {
		s.mirror = mirror
	}
}

// WithLogger 注入日志器
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) {
		s.logger = lg
	}
}

// WithConfig 注入存储配置
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		s.config = cfg
	}
}

// New 创建 Store 实例
// repo 为同步主存，wq 保证同键写入串行，wp 承载异步镜像写入
func New(repo domain.KeyspaceRepository, wq *writequeue.Manager, wp *workerpool.Pool, opts ...Option) *Store {
	s := &Store{
		repo:    repo,
		wq:      wq,
		wp:      wp,
		logger:  zap.NewNop(),
		records: make(map[string]*domain.UserRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MirrorKey 用户记录在镜像存储中的键
func MirrorKey(username string) string {
	return fmt.Sprintf("%s/%s.json", MirrorNamespace, username)
}

// Load 从主存加载全部记录到内存
// 单条记录损坏不会中断加载：跳过并安排后台镜像修复
func (s *Store) Load(ctx context.Context) error {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, entry := range entries {
		var rec domain.UserRecord
		if err := convert.Unmarshal(entry.Value, &rec); err != nil {
			s.logger.Warn("skip corrupted record, scheduling mirror rehydration",
				zap.String(logger.FieldKey, entry.Key),
				zap.Error(err),
			)
			s.scheduleRehydrate(entry.Key)
			continue
		}
		s.records[entry.Key] = &rec
		loaded++
	}

	s.rehydrateMissing()

	s.logger.Info("store loaded",
		zap.Int("records", loaded),
		zap.Int("total", len(entries)),
	)
	return nil
}

// rehydrateMissing 主存整体丢失或个别键缺失时，按镜像命名空间找回记录
// 调用方需持有 s.mu
func (s *Store) rehydrateMissing() {
	if s.mirror == nil {
		return
	}
	keys, err := s.mirror.ListKeys(MirrorNamespace + "/")
	if err != nil {
		s.logger.Error("mirror list failed", zap.Error(err))
		return
	}
	for _, key := range keys {
		username := strings.TrimSuffix(strings.TrimPrefix(key, MirrorNamespace+"/"), ".json")
		if username == "" {
			continue
		}
		if _, ok := s.records[username]; ok {
			continue
		}
		s.logger.Warn("record missing from primary, scheduling mirror rehydration",
			zap.String(logger.FieldUsername, username),
		)
		s.scheduleRehydrate(username)
	}
}

// scheduleRehydrate 后台用镜像副本修复主存中损坏的记录
func (s *Store) scheduleRehydrate(username string) {
	if s.mirror == nil || s.wp == nil {
		return
	}
	err := s.wp.Submit(context.Background(), func(ctx context.Context) error {
		content, err := s.mirror.GetContent(MirrorKey(username))
		if err != nil {
			return err
		}
		var rec domain.UserRecord
		if err := convert.Unmarshal(content, &rec); err != nil {
			return err
		}
		if err := s.putPrimary(ctx, username, content); err != nil {
			return err
		}
		s.mu.Lock()
		s.records[username] = &rec
		s.mu.Unlock()
		s.logger.Info("record rehydrated from mirror", zap.String(logger.FieldUsername, username))
		return nil
	})
	if err != nil {
		s.logger.Error("rehydration submit failed",
			zap.String(logger.FieldUsername, username),
			zap.Error(err),
		)
	}
}

// Get 返回记录快照，不存在时返回 (nil, nil)
// 返回值是深拷贝，调用方修改不会影响存储内容
func (s *Store) Get(ctx context.Context, username string) (*domain.UserRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[username]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	snapshot, err := convert.DeepClone(rec)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Exists 判断键是否存在
func (s *Store) Exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[username]
	return ok
}

// Usernames 返回全部键
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}

// Count 返回记录数量
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Save 保存整条记录
// 主存写入同步完成后才返回；镜像写入异步执行，失败只记日志
// 同一键的并发写入由写队列串行化，后写覆盖先写
func (s *Store) Save(ctx context.Context, username string, rec *domain.UserRecord) error {
	value, err := convert.Marshal(rec)
	if err != nil {
		return err
	}

	if s.config.RecordSizeLimit > 0 && int64(len(value)) > s.config.RecordSizeLimit {
		return code.ErrorStorageQuota.Clone().WithDetails(
			fmt.Sprintf("record size %d exceeds limit %d", len(value), s.config.RecordSizeLimit))
	}

	snapshot, err := convert.DeepClone(rec)
	if err != nil {
		return err
	}

	if err := s.putPrimary(ctx, username, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.records[username] = snapshot
	s.mu.Unlock()

	s.mirrorAsync(username, value)
	s.notify(username)
	return nil
}

// putPrimary 经写队列串行写入主存
func (s *Store) putPrimary(ctx context.Context, username string, value []byte) error {
	if s.wq == nil {
		return s.repo.Put(ctx, username, value)
	}
	return s.wq.Execute(ctx, username, func() error {
		return s.repo.Put(ctx, username, value)
	})
}

// mirrorAsync 异步写镜像，失败不影响主流程
func (s *Store) mirrorAsync(username string, value []byte) {
	if s.mirror == nil || s.wp == nil {
		return
	}
	err := s.wp.Submit(context.Background(), func(ctx context.Context) error {
		if _, err := s.mirror.PutContent(MirrorKey(username), value); err != nil {
			s.logger.Error("mirror write failed",
				zap.String(logger.FieldUsername, username),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("mirror submit failed",
			zap.String(logger.FieldUsername, username),
			zap.Error(err),
		)
	}
}

// Delete 删除记录，主存同步删除，镜像异步删除
func (s *Store) Delete(ctx context.Context, username string) error {
	if err := s.wqDelete(ctx, username); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.records, username)
	s.mu.Unlock()

	if s.mirror != nil && s.wp != nil {
		_ = s.wp.Submit(context.Background(), func(ctx context.Context) error {
			if err := s.mirror.Delete(MirrorKey(username)); err != nil {
				s.logger.Error("mirror delete failed",
					zap.String(logger.FieldUsername, username),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}

	s.notify(username)
	return nil
}

func (s *Store) wqDelete(ctx context.Context, username string) error {
	if s.wq == nil {
		return s.repo.Delete(ctx, username)
	}
	return s.wq.Execute(ctx, username, func() error {
		return s.repo.Delete(ctx, username)
	})
}

// OnChange 注册记录变更监听器，Save 与 Delete 成功后按注册顺序回调
func (s *Store) OnChange(fn ChangeListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(username string) {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	for _, fn := range s.listeners {
		fn(username)
	}
}
