package service

import (
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/timex"
	"github.com/haierkeys/offline-note-vault/pkg/util"
)

// ExportFormatVersion 导出文档格式版本
const ExportFormatVersion = "1.0"

// ExportDocument 备份/恢复的持久交换格式
// 必须能无损经过导入路径回写（按笔记 ID 合并，重复即跳过）
type ExportDocument struct {
	FormatVersion string             `json:"formatVersion"`
	ExportedAt    timex.Time         `json:"exportedAt"`
	Notes         []*domain.Note     `json:"notes"`
	Categories    []*domain.Category `json:"categories"`
	Tags          []string           `json:"tags"`
}

// ImportResult 导入统计
type ImportResult struct {
	ImportedNotes      int `json:"importedNotes"`
	SkippedNotes       int `json:"skippedNotes"`
	ImportedCategories int `json:"importedCategories"`
	MergedCategories   int `json:"mergedCategories"`
}

// Export 导出用户全部笔记、分类与标签
func (svc *Service) Export(username string) (*ExportDocument, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, err
	}
	doc := &ExportDocument{
		FormatVersion: ExportFormatVersion,
		ExportedAt:    timex.Now(),
		Notes:         rec.Notes,
		Categories:    rec.Categories,
		Tags:          rec.AllTags(),
	}
	if doc.Notes == nil {
		doc.Notes = []*domain.Note{}
	}
	if doc.Categories == nil {
		doc.Categories = []*domain.Category{}
	}
	return doc, nil
}

// ExportJSON 序列化后的导出文档
func (svc *Service) ExportJSON(username string) ([]byte, error) {
	doc, err := svc.Export(username)
	if err != nil {
		return nil, err
	}
	raw, err := convert.Marshal(doc)
	if err != nil {
		return nil, code.ErrorExportFailed
	}
	return raw, nil
}

// ParseImport 解析导入文档，格式无法识别时返回 code.ErrorImportFormat
func ParseImport(raw []byte) (*ExportDocument, error) {
	var doc ExportDocument
	if err := convert.Unmarshal(raw, &doc); err != nil {
		return nil, code.ErrorImportFormat
	}
	if doc.FormatVersion == "" {
		return nil, code.ErrorImportFormat
	}
	return &doc, nil
}

// Import 按笔记 ID 合并导入文档
// 已存在的 ID 与同批次内重复的 ID 静默跳过；分类按名称（不区分大小写）合并
// 重复导入同一份文档不改变笔记数量
func (svc *Service) Import(username string, doc *ExportDocument) (*ImportResult, error) {
	result := &ImportResult{}
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		// 分类先合并，得到导入分类 ID 到本地分类 ID 的映射
		categoryRemap := make(map[string]string, len(doc.Categories))
		for _, category := range doc.Categories {
			if category == nil || category.ID == "" {
				continue
			}
			if existing := rec.FindCategoryByName(category.Name); existing != nil {
				categoryRemap[category.ID] = existing.ID
				result.MergedCategories++
				continue
			}
			added := &domain.Category{
				ID:        category.ID,
				Name:      strings.TrimSpace(category.Name),
				Color:     category.Color,
				CreatedAt: category.CreatedAt,
			}
			if rec.FindCategory(added.ID) != nil {
				// 同 ID 不同名的冲突，重挂到已有分类
				categoryRemap[category.ID] = added.ID
				result.MergedCategories++
				continue
			}
			rec.Categories = append(rec.Categories, added)
			categoryRemap[category.ID] = added.ID
			result.ImportedCategories++
		}

		seen := make(map[string]bool, len(doc.Notes))
		for _, note := range doc.Notes {
			if note == nil || note.ID == "" {
				result.SkippedNotes++
				continue
			}
			// 同批次内重复 ID，后到的丢弃
			if seen[note.ID] {
				result.SkippedNotes++
				continue
			}
			seen[note.ID] = true
			// 已存在的 ID 跳过，保证重复导入幂等
			if rec.FindNote(note.ID) != nil {
				result.SkippedNotes++
				continue
			}
			imported := &domain.Note{
				ID:         note.ID,
				Title:      note.Title,
				Content:    note.Content,
				PlainText:  util.ExtractPlainText(note.Content),
				CategoryID: categoryRemap[note.CategoryID],
				Tags:       normalizeTags(note.Tags),
				IsPinned:   note.IsPinned,
				IsFavorite: note.IsFavorite,
				CreatedAt:  note.CreatedAt,
				UpdatedAt:  note.UpdatedAt,
			}
			rec.Notes = append(rec.Notes, imported)
			result.ImportedNotes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
