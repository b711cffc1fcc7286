// Package service 业务服务层
// 所有笔记与账户操作都通过 Durable Store 以整条用户记录为单位读写
package service

import (
	"context"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/internal/store"
	"github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	ctx    *gin.Context
	store  *store.Store
	tokens app.TokenManager
	SF     *singleflight.Group
}

func New(ctx *gin.Context, st *store.Store, tokens app.TokenManager) *Service {
	svc := Service{ctx: ctx, store: st, tokens: tokens}
	svc.SF = &singleflight.Group{}
	return &svc
}

// NewBackground 创建用于后台任务 / 控制消息的 Service 实例（ctx 为 nil）
func NewBackground(st *store.Store) *Service {
	svc := Service{ctx: nil, store: st}
	svc.SF = &singleflight.Group{}
	return &svc
}

func (svc *Service) WithSF(sf *singleflight.Group) *Service {
	svc.SF = sf
	return svc
}

func (svc *Service) Ctx() *gin.Context {
	return svc.ctx
}

// Store 暴露底层存储，路由与任务层的只读访问用
func (svc *Service) Store() *store.Store {
	return svc.store
}

func (svc *Service) context() context.Context {
	if svc.ctx != nil {
		return svc.ctx.Request.Context()
	}
	return context.Background()
}

func (svc *Service) clientIP() string {
	if svc.ctx != nil {
		return svc.ctx.ClientIP()
	}
	return ""
}

// record 取出用户记录快照，不存在时返回 code.ErrorUserNotFound
// 使用SF合并同键并发读取, 避免重复快照拷贝；只读调用方共享同一份快照
func (svc *Service) record(username string) (*domain.UserRecord, error) {
	rec, err, _ := svc.SF.Do("Record_"+username, func() (any, error) {
		return svc.recordCtx(svc.context(), username)
	})
	if err != nil {
		return nil, err
	}
	return rec.(*domain.UserRecord), nil
}

func (svc *Service) recordCtx(ctx context.Context, username string) (*domain.UserRecord, error) {
	rec, err := svc.store.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, code.ErrorUserNotFound
	}
	return rec, nil
}

// mutateRecord 读出快照、应用变更、整条写回
// 写路径不经过 SF，必须持有独立快照；写回失败时内存与主存均不受影响
func (svc *Service) mutateRecord(username string, fn func(rec *domain.UserRecord) error) (*domain.UserRecord, error) {
	ctx := svc.context()
	rec, err := svc.recordCtx(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := svc.store.Save(ctx, username, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
