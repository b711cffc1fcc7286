package service

import (
	"sort"
	"strings"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/timex"
	"github.com/haierkeys/offline-note-vault/pkg/util"

	"github.com/google/uuid"
)

// Note 对外返回的笔记视图
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	PlainText  string     `json:"plainText"`
	CategoryID string     `json:"categoryId"`
	Tags       []string   `json:"tags"`
	IsPinned   bool       `json:"isPinned"`
	IsFavorite bool       `json:"isFavorite"`
	CreatedAt  timex.Time `json:"createdAt"`
	UpdatedAt  timex.Time `json:"updatedAt"`
}

type NoteCreateRequest struct {
	Title      string   `json:"title" form:"title"`
	Content    string   `json:"content" form:"content"`
	CategoryID string   `json:"categoryId" form:"categoryId"`
	Tags       []string `json:"tags" form:"tags"`
}

// NoteModifyRequest 部分更新，nil 字段保持原值
type NoteModifyRequest struct {
	ID         string    `json:"id" form:"id" binding:"required"`
	Title      *string   `json:"title" form:"title"`
	Content    *string   `json:"content" form:"content"`
	CategoryID *string   `json:"categoryId" form:"categoryId"`
	Tags       *[]string `json:"tags" form:"tags"`
	IsPinned   *bool     `json:"isPinned" form:"isPinned"`
	IsFavorite *bool     `json:"isFavorite" form:"isFavorite"`
}

type NoteListRequest struct {
	Keyword    string `json:"keyword" form:"keyword"`
	CategoryID string `json:"categoryId" form:"categoryId"`
	Tag        string `json:"tag" form:"tag"`
	Pinned     *bool  `json:"pinned" form:"pinned"`
	Favorite   *bool  `json:"favorite" form:"favorite"`
	SortBy     string `json:"sortBy" form:"sortBy" binding:"omitempty,oneof=updatedAt createdAt title"`
	SortOrder  string `json:"sortOrder" form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Page       int    `json:"page" form:"page" binding:"omitempty,min=1"`
	PageSize   int    `json:"pageSize" form:"pageSize" binding:"omitempty,min=1"`
}

func noteView(n *domain.Note) *Note {
	return convert.StructAssign(n, &Note{}).(*Note)
}

// NoteCreate 创建笔记，纯文本摘要随内容一并落库
func (svc *Service) NoteCreate(username string, param *NoteCreateRequest) (*Note, error) {
	now := timex.Now()
	note := &domain.Note{
		ID:         uuid.NewString(),
		Title:      param.Title,
		Content:    param.Content,
		PlainText:  util.ExtractPlainText(param.Content),
		CategoryID: param.CategoryID,
		Tags:       normalizeTags(param.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if note.CategoryID != "" && rec.FindCategory(note.CategoryID) == nil {
			return code.ErrorCategoryNotFound
		}
		rec.UpsertNote(note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return noteView(note), nil
}

// NoteModify 修改笔记，内容变动时重新派生纯文本
func (svc *Service) NoteModify(username string, param *NoteModifyRequest) (*Note, error) {
	var view *Note
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		note := rec.FindNote(param.ID)
		if note == nil {
			return code.ErrorNoteNotFound
		}
		if param.Title != nil {
			note.Title = *param.Title
		}
		if param.Content != nil {
			note.Content = *param.Content
			note.PlainText = util.ExtractPlainText(*param.Content)
		}
		if param.CategoryID != nil {
			if *param.CategoryID != "" && rec.FindCategory(*param.CategoryID) == nil {
				return code.ErrorCategoryNotFound
			}
			note.CategoryID = *param.CategoryID
		}
		if param.Tags != nil {
			note.Tags = normalizeTags(*param.Tags)
		}
		if param.IsPinned != nil {
			note.IsPinned = *param.IsPinned
		}
		if param.IsFavorite != nil {
			note.IsFavorite = *param.IsFavorite
		}
		note.UpdatedAt = timex.Now()
		view = noteView(note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// NoteDelete 删除笔记
func (svc *Service) NoteDelete(username string, id string) error {
	_, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if !rec.RemoveNote(id) {
			return code.ErrorNoteNotFound
		}
		return nil
	})
	return err
}

// NoteGet 单条笔记视图
func (svc *Service) NoteGet(username string, id string) (*Note, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, err
	}
	note := rec.FindNote(id)
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}
	return noteView(note), nil
}

// NoteList 笔记列表：关键字搜索 + 分类/标签/置顶/收藏过滤 + 排序 + 分页，置顶永远在前
// 返回当前页与过滤后的总条数
func (svc *Service) NoteList(username string, param *NoteListRequest) ([]*Note, int, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]*domain.Note, 0, len(rec.Notes))
	for _, note := range rec.Notes {
		if param.Keyword != "" && !note.MatchKeyword(param.Keyword) && !matchTagKeyword(note, param.Keyword) {
			continue
		}
		if param.CategoryID != "" && note.CategoryID != param.CategoryID {
			continue
		}
		if param.Tag != "" && !note.HasTag(param.Tag) {
			continue
		}
		if param.Pinned != nil && note.IsPinned != *param.Pinned {
			continue
		}
		if param.Favorite != nil && note.IsFavorite != *param.Favorite {
			continue
		}
		matched = append(matched, note)
	}

	sortBy := param.SortBy
	if sortBy == "" {
		sortBy = rec.Settings.SortBy
	}
	sortOrder := param.SortOrder
	if sortOrder == "" {
		sortOrder = rec.Settings.SortOrder
	}
	sortNotes(matched, sortBy, sortOrder)

	total := len(matched)
	matched = pageSlice(matched, param.Page, param.PageSize)

	out := make([]*Note, 0, len(matched))
	for _, note := range matched {
		out = append(out, noteView(note))
	}
	return out, total, nil
}

// pageSlice 排序后按页截取，page/pageSize 缺省回退到全局分页配置
func pageSlice(notes []*domain.Note, page int, pageSize int) []*domain.Note {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = app.DefaultPaginationConfig.DefaultPageSize
	}
	if pageSize > app.DefaultPaginationConfig.MaxPageSize {
		pageSize = app.DefaultPaginationConfig.MaxPageSize
	}
	offset := app.GetPageOffset(page, pageSize)
	if offset >= len(notes) {
		return nil
	}
	end := offset + pageSize
	if end > len(notes) {
		end = len(notes)
	}
	return notes[offset:end]
}

// TagList 用户全部标签（去重，不区分大小写）
func (svc *Service) TagList(username string) ([]string, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, err
	}
	return rec.AllTags(), nil
}

func matchTagKeyword(note *domain.Note, keyword string) bool {
	lower := strings.ToLower(keyword)
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), lower) {
			return true
		}
	}
	return false
}

// normalizeTags 去空白去重，保留首次出现的大小写
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		lower := strings.ToLower(tag)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, tag)
	}
	return out
}

func sortNotes(notes []*domain.Note, sortBy string, sortOrder string) {
	asc := sortOrder == "asc"
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !asc {
			a, b = b, a
		}
		switch sortBy {
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case "createdAt":
			return a.CreatedAt.Time().Before(b.CreatedAt.Time())
		default:
			return a.UpdatedAt.Time().Before(b.UpdatedAt.Time())
		}
	})
}
