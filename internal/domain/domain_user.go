package domain

import (
	"strings"

	"github.com/haierkeys/offline-note-vault/pkg/timex"
)

// Settings 用户偏好设置，随 UserRecord 整体持久化
type Settings struct {
	Lang      string `json:"lang,omitempty"`
	Theme     string `json:"theme,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

// UserRecord 单个用户的全部数据，键空间中一个键对应一条
// 读写始终以整条记录为单位
type UserRecord struct {
	Username       string      `json:"username"`
	PasswordDigest string      `json:"passwordDigest"`
	Notes          []*Note     `json:"notes"`
	Categories     []*Category `json:"categories"`
	Settings       Settings    `json:"settings"`
	CreatedAt      timex.Time  `json:"createdAt"`
	UpdatedAt      timex.Time  `json:"updatedAt"`
	LastLoginAt    timex.Time  `json:"lastLoginAt,omitempty"`
}

// FindNote 按 ID 查找笔记，不存在返回 nil
func (r *UserRecord) FindNote(id string) *Note {
	for _, n := range r.Notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// UpsertNote 按 ID 覆盖或追加笔记，返回是否为新增
func (r *UserRecord) UpsertNote(note *Note) bool {
	for i, n := range r.Notes {
		if n.ID == note.ID {
			r.Notes[i] = note
			return false
		}
	}
	r.Notes = append(r.Notes, note)
	return true
}

// RemoveNote 按 ID 删除笔记，返回是否删除了记录
func (r *UserRecord) RemoveNote(id string) bool {
	for i, n := range r.Notes {
		if n.ID == id {
			r.Notes = append(r.Notes[:i], r.Notes[i+1:]...)
			return true
		}
	}
	return false
}

// FindCategory 按 ID 查找分类
func (r *UserRecord) FindCategory(id string) *Category {
	for _, c := range r.Categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindCategoryByName 按名称查找分类（不区分大小写）
func (r *UserRecord) FindCategoryByName(name string) *Category {
	for _, c := range r.Categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// RemoveCategory 删除分类，并清空引用它的笔记的分类字段
func (r *UserRecord) RemoveCategory(id string) bool {
	for i, c := range r.Categories {
		if c.ID == id {
			r.Categories = append(r.Categories[:i], r.Categories[i+1:]...)
			for _, n := range r.Notes {
				if n.CategoryID == id {
					n.CategoryID = ""
				}
			}
			return true
		}
	}
	return false
}

// AllTags 汇总全部笔记的去重标签
func (r *UserRecord) AllTags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, n := range r.Notes {
		for _, t := range n.Tags {
			key := strings.ToLower(t)
			if !seen[key] {
				seen[key] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}
