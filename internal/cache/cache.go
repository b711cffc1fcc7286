// Package cache 响应缓存：按缓存代组织的 HTTP 响应副本，落在二级存储上
// 键空间布局：<generation>/<sha1(url)>.json，mirror/ 前缀保留给用户数据镜像
package cache

import (
	"fmt"
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/store"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/logger"
	"github.com/haierkeys/offline-note-vault/pkg/storage"
	"github.com/haierkeys/offline-note-vault/pkg/timex"
	"github.com/haierkeys/offline-note-vault/pkg/util"

	"go.uber.org/zap"
)

// GenerationPrefix 缓存代名称前缀，代名形如 static-v3
const GenerationPrefix = "static-"

// Entry 一条缓存的响应
type Entry struct {
	URL       string            `json:"url"`
	Status    int               `json:"status"`
	Header    map[string]string `json:"header,omitempty"`
	Body      []byte            `json:"body"`
	FetchedAt timex.Time        `json:"fetchedAt"`
}

// ResponseCache 某一缓存代上的响应缓存
type ResponseCache struct {
	backend    storage.Storager
	generation string
	logger     *zap.Logger
}

// GenerationName 由应用资源版本得到缓存代名称
func GenerationName(appVersion string) string {
	return GenerationPrefix + appVersion
}

// New 创建指向指定缓存代的响应缓存
func New(backend storage.Storager, appVersion string, lg *zap.Logger) *ResponseCache {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &ResponseCache{
		backend:    backend,
		generation: GenerationName(appVersion),
		logger:     lg,
	}
}

// Generation 当前缓存代名称
func (c *ResponseCache) Generation() string {
	return c.generation
}

// entryKey URL 在当前缓存代中的存储键
func (c *ResponseCache) entryKey(url string) string {
	return fmt.Sprintf("%s/%s.json", c.generation, util.EncodeSHA1(url))
}

// Put 写入一条响应副本，同 URL 覆盖
func (c *ResponseCache) Put(entry *Entry) error {
	value, err := convert.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := c.backend.PutContent(c.entryKey(entry.URL), value); err != nil {
		c.logger.Error("cache write failed",
			zap.String(logger.FieldURL, entry.URL),
			zap.String(logger.FieldGeneration, c.generation),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Get 读取 URL 的缓存响应，未命中时返回 code.ErrorCacheEntryNotFound
func (c *ResponseCache) Get(url string) (*Entry, error) {
	content, err := c.backend.GetContent(c.entryKey(url))
	if err != nil {
		return nil, code.ErrorCacheEntryNotFound
	}
	var entry Entry
	if err := convert.Unmarshal(content, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete 删除 URL 的缓存响应
func (c *ResponseCache) Delete(url string) error {
	return c.backend.Delete(c.entryKey(url))
}

// PurgeGeneration 删除当前缓存代的全部条目
func (c *ResponseCache) PurgeGeneration() error {
	return c.backend.DeletePrefix(c.generation)
}

// PurgeAll 删除全部缓存代以及镜像命名空间，仅用于用户主动发起的重置
// 同一后端上的其他命名空间（如备份）不属于缓存层，保持原样
func (c *ResponseCache) PurgeAll() error {
	keys, err := c.backend.ListKeys("")
	if err != nil {
		return err
	}
	prefixes := make(map[string]bool)
	for _, key := range keys {
		prefix, _, found := strings.Cut(key, "/")
		if !found {
			continue
		}
		if prefix != store.MirrorNamespace && !strings.HasPrefix(prefix, GenerationPrefix) {
			continue
		}
		prefixes[prefix] = true
	}
	for prefix := range prefixes {
		if err := c.backend.DeletePrefix(prefix); err != nil {
			return err
		}
	}
	c.logger.Warn("all cache namespaces purged", zap.String(logger.FieldGeneration, c.generation))
	return nil
}

// PurgeStale 删除除当前代以外的全部历史缓存代
// 镜像命名空间不受影响
func (c *ResponseCache) PurgeStale() error {
	keys, err := c.backend.ListKeys("")
	if err != nil {
		return err
	}

	stale := make(map[string]bool)
	for _, key := range keys {
		prefix, _, found := strings.Cut(key, "/")
		if !found {
			continue
		}
		if prefix == c.generation || prefix == store.MirrorNamespace {
			continue
		}
		if strings.HasPrefix(prefix, GenerationPrefix) {
			stale[prefix] = true
		}
	}

	for prefix := range stale {
		if err := c.backend.DeletePrefix(prefix); err != nil {
			c.logger.Error("stale generation purge failed",
				zap.String(logger.FieldGeneration, prefix),
				zap.Error(err),
			)
			return err
		}
		c.logger.Info("stale generation purged", zap.String(logger.FieldGeneration, prefix))
	}
	return nil
}
