package service

import (
	"sort"
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/timex"

	"github.com/google/uuid"
)

// Category 对外返回的分类视图，Count 为归属笔记数
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	Count     int        `json:"count"`
	CreatedAt timex.Time `json:"createdAt"`
}

type CategoryCreateRequest struct {
	Name  string `json:"name" form:"name" binding:"required,max=64"`
	Color string `json:"color" form:"color" binding:"omitempty,max=32"`
}

type CategoryRenameRequest struct {
	ID    string `json:"id" form:"id" binding:"required"`
	Name  string `json:"name" form:"name" binding:"required,max=64"`
	Color string `json:"color" form:"color" binding:"omitempty,max=32"`
}

func categoryView(c *domain.Category, count int) *Category {
	return &Category{ID: c.ID, Name: c.Name, Color: c.Color, Count: count, CreatedAt: c.CreatedAt}
}

func countNotes(rec *domain.UserRecord, categoryID string) int {
	count := 0
	for _, note := range rec.Notes {
		if note.CategoryID == categoryID {
			count++
		}
	}
	return count
}

// CategoryCreate 创建分类，名称不区分大小写唯一
func (svc *Service) CategoryCreate(username string, param *CategoryCreateRequest) (*Category, error) {
	category := &domain.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(param.Name),
		Color:     param.Color,
		CreatedAt: timex.Now(),
	}
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if rec.FindCategoryByName(category.Name) != nil {
			return code.ErrorCategoryNameExists
		}
		rec.Categories = append(rec.Categories, category)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categoryView(category, 0), nil
}

// CategoryRename 重命名分类
func (svc *Service) CategoryRename(username string, param *CategoryRenameRequest) (*Category, error) {
	var view *Category
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		category := rec.FindCategory(param.ID)
		if category == nil {
			return code.ErrorCategoryNotFound
		}
		name := strings.TrimSpace(param.Name)
		if existing := rec.FindCategoryByName(name); existing != nil && existing.ID != category.ID {
			return code.ErrorCategoryNameExists
		}
		category.Name = name
		if param.Color != "" {
			category.Color = param.Color
		}
		view = categoryView(category, countNotes(rec, category.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CategoryDelete 删除分类，归属笔记的分类引用被清空而非删除笔记
func (svc *Service) CategoryDelete(username string, id string) error {
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if !rec.RemoveCategory(id) {
			return code.ErrorCategoryNotFound
		}
		return nil
	})
	return err
}

// CategoryList 分类列表，按名称排序
func (svc *Service) CategoryList(username string) ([]*Category, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, err
	}
	out := make([]*Category, 0, len(rec.Categories))
	for _, category := range rec.Categories {
		out = append(out, categoryView(category, countNotes(rec, category.ID)))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
