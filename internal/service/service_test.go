package service

import (
	"context"
	"sync"
	"testing"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/internal/store"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/util"
	"github.com/haierkeys/offline-note-vault/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memRepo 内存主存实现，测试用
type memRepo struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemRepo() *memRepo {
	return &memRepo{data: make(map[string][]byte)}
}

func (r *memRepo) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (r *memRepo) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	r.data[key] = cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *memRepo) ListAll(ctx context.Context) ([]*domain.KeyspaceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.KeyspaceEntry, 0, len(r.data))
	for k, v := range r.data {
		out = append(out, &domain.KeyspaceEntry{Key: k, Value: v})
	}
	return out, nil
}

func (r *memRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.data)), nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	wqCfg := writequeue.DefaultConfig()
	wq := writequeue.New(&wqCfg, zap.NewNop())
	t.Cleanup(func() { wq.Shutdown(context.Background()) })
	return NewBackground(store.New(newMemRepo(), wq, nil))
}

func registerUser(t *testing.T, svc *Service, username string) {
	t.Helper()
	_, err := svc.UserRegister(&UserRegisterRequest{
		Username:        username,
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)
}

func TestService_UserRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.UserRegister(&UserRegisterRequest{
		Username:        "alice",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// 重复注册
	_, err = svc.UserRegister(&UserRegisterRequest{
		Username:        "alice",
		Password:        "secret-pass",
		ConfirmPassword: "secret-pass",
	})
	assert.ErrorIs(t, err, code.ErrorUserAlreadyExists)

	// 两次口令不一致
	_, err = svc.UserRegister(&UserRegisterRequest{
		Username:        "bob",
		Password:        "secret-pass",
		ConfirmPassword: "other-pass",
	})
	assert.ErrorIs(t, err, code.ErrorUserPasswordNotMatch)

	// 错误口令与不存在的用户返回同一个码
	_, err = svc.UserLogin(&UserLoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, code.ErrorUserLoginPasswordFailed)
	_, err = svc.UserLogin(&UserLoginRequest{Username: "nobody", Password: "secret-pass"})
	assert.ErrorIs(t, err, code.ErrorUserLoginPasswordFailed)

	logged, err := svc.UserLogin(&UserLoginRequest{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)
	assert.False(t, logged.LastLoginAt.IsZero())
}

// 每次保存后纯文本必须与富文本内容保持同步
func TestService_NotePlainTextDerivation(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	content := "<h1>Meeting</h1><p>Discuss <b>roadmap</b> &amp; budget</p>"
	note, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: "minutes", Content: content})
	require.NoError(t, err)
	assert.Equal(t, util.ExtractPlainText(content), note.PlainText)

	newContent := "<p>Rewritten entirely</p>"
	modified, err := svc.NoteModify("alice", &NoteModifyRequest{ID: note.ID, Content: &newContent})
	require.NoError(t, err)
	assert.Equal(t, util.ExtractPlainText(newContent), modified.PlainText)
	assert.NotEqual(t, note.PlainText, modified.PlainText)
}

func TestService_NoteListSearchFilterSort(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	work, err := svc.CategoryCreate("alice", &CategoryCreateRequest{Name: "Work"})
	require.NoError(t, err)

	_, err = svc.NoteCreate("alice", &NoteCreateRequest{Title: "banana", Content: "<p>yellow fruit</p>", Tags: []string{"food"}})
	require.NoError(t, err)
	_, err = svc.NoteCreate("alice", &NoteCreateRequest{Title: "apple", Content: "<p>red fruit</p>", CategoryID: work.ID, Tags: []string{"food"}})
	require.NoError(t, err)
	pinnedNote, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: "zebra", Content: "<p>animal</p>"})
	require.NoError(t, err)
	pinned := true
	_, err = svc.NoteModify("alice", &NoteModifyRequest{ID: pinnedNote.ID, IsPinned: &pinned})
	require.NoError(t, err)

	// 关键字命中纯文本
	notes, total, err := svc.NoteList("alice", &NoteListRequest{Keyword: "fruit"})
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, 2, total)

	// 分类过滤
	notes, _, err = svc.NoteList("alice", &NoteListRequest{CategoryID: work.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "apple", notes[0].Title)

	// 标签过滤不区分大小写
	notes, _, err = svc.NoteList("alice", &NoteListRequest{Tag: "FOOD"})
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	// 标题升序，置顶永远在前
	notes, _, err = svc.NoteList("alice", &NoteListRequest{SortBy: "title", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "zebra", notes[0].Title)
	assert.Equal(t, "apple", notes[1].Title)
	assert.Equal(t, "banana", notes[2].Title)
}

// 分页在过滤排序之后截取，总条数不受页大小影响
func TestService_NoteListPagination(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: title, Content: "<p>x</p>"})
		require.NoError(t, err)
	}

	notes, total, err := svc.NoteList("alice", &NoteListRequest{SortBy: "title", SortOrder: "asc", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, notes, 2)
	assert.Equal(t, "c", notes[0].Title)
	assert.Equal(t, "d", notes[1].Title)

	// 末页不满一页
	notes, total, err = svc.NoteList("alice", &NoteListRequest{SortBy: "title", SortOrder: "asc", Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, notes, 1)
	assert.Equal(t, "e", notes[0].Title)

	// 超出末页返回空页
	notes, total, err = svc.NoteList("alice", &NoteListRequest{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, notes, 0)
}

func TestService_CategoryLifecycle(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	work, err := svc.CategoryCreate("alice", &CategoryCreateRequest{Name: "Work"})
	require.NoError(t, err)

	// 名称不区分大小写唯一
	_, err = svc.CategoryCreate("alice", &CategoryCreateRequest{Name: "work"})
	assert.ErrorIs(t, err, code.ErrorCategoryNameExists)

	note, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: "n", CategoryID: work.ID})
	require.NoError(t, err)

	list, err := svc.CategoryList("alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Count)

	// 删除分类只清引用，不删笔记
	require.NoError(t, svc.CategoryDelete("alice", work.ID))
	got, err := svc.NoteGet("alice", note.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryID)
}

// 导出再导入必须精确还原，重复导入不改变笔记数量
// 同键并发读取经 SF 合并，各调用方拿到一致的快照视图
func TestService_ConcurrentReadsConsistent(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")
	_, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: "one", Content: "<p>first</p>", Tags: []string{"work"}})
	require.NoError(t, err)

	var g sync.WaitGroup
	for i := 0; i < 20; i++ {
		g.Add(1)
		go func() {
			defer g.Done()
			notes, total, err := svc.NoteList("alice", &NoteListRequest{})
			assert.NoError(t, err)
			assert.Len(t, notes, 1)
			assert.Equal(t, 1, total)

			tags, err := svc.TagList("alice")
			assert.NoError(t, err)
			assert.Equal(t, []string{"work"}, tags)

			doc, err := svc.Export("alice")
			assert.NoError(t, err)
			assert.Len(t, doc.Notes, 1)
		}()
	}
	g.Wait()
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")
	registerUser(t, svc, "bob")

	work, err := svc.CategoryCreate("alice", &CategoryCreateRequest{Name: "Work", Color: "#ff0000"})
	require.NoError(t, err)
	_, err = svc.NoteCreate("alice", &NoteCreateRequest{Title: "one", Content: "<p>first</p>", CategoryID: work.ID, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = svc.NoteCreate("alice", &NoteCreateRequest{Title: "two", Content: "<p>second</p>", Tags: []string{"b"}})
	require.NoError(t, err)

	raw, err := svc.ExportJSON("alice")
	require.NoError(t, err)

	doc, err := ParseImport(raw)
	require.NoError(t, err)
	assert.Equal(t, ExportFormatVersion, doc.FormatVersion)

	// 空账户导入后三个集合精确还原
	result, err := svc.Import("bob", doc)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ImportedNotes)
	assert.Equal(t, 0, result.SkippedNotes)
	assert.Equal(t, 1, result.ImportedCategories)

	bobDoc, err := svc.Export("bob")
	require.NoError(t, err)
	assert.Len(t, bobDoc.Notes, 2)
	assert.Len(t, bobDoc.Categories, 1)
	assert.Equal(t, "Work", bobDoc.Categories[0].Name)
	assert.Equal(t, "#ff0000", bobDoc.Categories[0].Color)
	assert.ElementsMatch(t, doc.Tags, bobDoc.Tags)

	// 第二次导入同一份文档，数量不变
	result, err = svc.Import("bob", doc)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedNotes)
	assert.Equal(t, 2, result.SkippedNotes)

	after, err := svc.Export("bob")
	require.NoError(t, err)
	assert.Len(t, after.Notes, 2)
}

// 同批次内重复 ID 的笔记，后到的被静默丢弃
func TestService_ImportDropsDuplicateIDsInBatch(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	doc := &ExportDocument{
		FormatVersion: ExportFormatVersion,
		Notes: []*domain.Note{
			{ID: "dup-1", Title: "kept", Content: "<p>first</p>"},
			{ID: "dup-1", Title: "dropped", Content: "<p>second</p>"},
		},
	}
	result, err := svc.Import("alice", doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedNotes)
	assert.Equal(t, 1, result.SkippedNotes)

	got, err := svc.NoteGet("alice", "dup-1")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}

func TestParseImport_RejectsUnknownFormat(t *testing.T) {
	_, err := ParseImport([]byte("not json at all"))
	assert.ErrorIs(t, err, code.ErrorImportFormat)

	_, err = ParseImport([]byte(`{"notes":[]}`))
	assert.ErrorIs(t, err, code.ErrorImportFormat)
}

// 整包写回覆盖笔记与分类，但账户身份字段保持不变
func TestService_CacheUserData(t *testing.T) {
	svc := newTestService(t)
	registerUser(t, svc, "alice")

	_, err := svc.NoteCreate("alice", &NoteCreateRequest{Title: "old", Content: "<p>old</p>"})
	require.NoError(t, err)

	result, err := svc.CacheUserData("alice", &CacheUserDataRequest{
		Notes: []*domain.Note{
			{ID: "n-1", Title: "pushed", Content: "<p>Hello <b>world</b></p>", Tags: []string{"Go", "go", " notes "}},
		},
		Categories: []*domain.Category{
			{ID: "c-1", Name: "Work"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notes)
	assert.Equal(t, 1, result.Categories)

	// 旧数据整体被替换
	_, err = svc.NoteGet("alice", "n-1")
	require.NoError(t, err)
	notes, _, err := svc.NoteList("alice", &NoteListRequest{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Hello world", notes[0].PlainText)
	assert.Equal(t, []string{"Go", "notes"}, notes[0].Tags)

	// 登录仍然可用，密码摘要未被覆盖
	_, err = svc.UserLogin(&UserLoginRequest{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)

	// 未知用户直接报错
	_, err = svc.CacheUserData("nobody", &CacheUserDataRequest{})
	assert.ErrorIs(t, err, code.ErrorUserNotFound)
}
