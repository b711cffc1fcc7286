package service

import (
	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/timex"
	"github.com/haierkeys/offline-note-vault/pkg/util"
)

// CacheUserDataRequest 控制通道整包缓存请求
// 客户端把本地的全部笔记数据推上来，服务端整条写回键空间
type CacheUserDataRequest struct {
	Notes      []*domain.Note     `json:"notes"`
	Categories []*domain.Category `json:"categories"`
	Settings   *domain.Settings   `json:"settings"`
}

// CacheUserDataResult 写回结果摘要
type CacheUserDataResult struct {
	Username   string `json:"username"`
	Notes      int    `json:"notes"`
	Categories int    `json:"categories"`
}

// CacheUserData 以客户端提交的数据整体覆盖该用户的笔记与分类
// 账户身份字段（密码摘要、创建时间、最近登录时间）保持不变
func (svc *Service) CacheUserData(username string, params *CacheUserDataRequest) (*CacheUserDataResult, error) {
	rec, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if params.Notes != nil {
			for _, n := range params.Notes {
				n.PlainText = util.ExtractPlainText(n.Content)
				n.Tags = normalizeTags(n.Tags)
				if n.CreatedAt.IsZero() {
					n.CreatedAt = timex.Now()
				}
				if n.UpdatedAt.IsZero() {
					n.UpdatedAt = n.CreatedAt
				}
			}
			rec.Notes = params.Notes
		}
		if params.Categories != nil {
			rec.Categories = params.Categories
		}
		if params.Settings != nil {
			rec.Settings = *params.Settings
		}
		rec.UpdatedAt = timex.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &CacheUserDataResult{
		Username:   username,
		Notes:      len(rec.Notes),
		Categories: len(rec.Categories),
	}, nil
}
