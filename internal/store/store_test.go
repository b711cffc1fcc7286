package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/storage/local_fs"
	"github.com/haierkeys/offline-note-vault/pkg/workerpool"
	"github.com/haierkeys/offline-note-vault/pkg/writequeue"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
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
	var entries []*domain.KeyspaceEntry
	for k, v := range r.data {
		entries = append(entries, &domain.KeyspaceEntry{Key: k, Value: v})
	}
	return entries, nil
}

func (r *memRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.data)), nil
}

func testRecord(username string) *domain.UserRecord {
	return &domain.UserRecord{
		Username:       username,
		PasswordDigest: "$2a$10$digest",
		Notes: []*domain.Note{
			{ID: "n1", Title: "hello", Content: "<p>hello</p>", PlainText: "hello", Tags: []string{"work"}},
		},
		Categories: []*domain.Category{
			{ID: "c1", Name: "Work"},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, nil, nil)
	ctx := context.Background()

	// 不存在返回 (nil, nil)
	rec, err := s.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Nil(t, rec)

	assert.Nil(t, s.Save(ctx, "alice", testRecord("alice")))

	rec, err = s.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Equal(t, "alice", rec.Username)
	assert.Len(t, rec.Notes, 1)

	// 主存同步持久化
	raw, err := repo.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.NotNil(t, raw)

	// Get 返回快照，外部修改不影响存储
	rec.Notes[0].Title = "mutated"
	again, err := s.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Equal(t, "hello", again.Notes[0].Title)
}

func TestStore_SaveThroughWriteQueue(t *testing.T) {
	repo := newMemRepo()
	wqCfg := writequeue.DefaultConfig()
	wq := writequeue.New(&wqCfg, zap.NewNop())
	defer wq.Shutdown(context.Background())

	s := New(repo, wq, nil)
	ctx := context.Background()

	// 同键并发保存，全部成功且最终保留一个版本
	var g sync.WaitGroup
	for i := 0; i < 10; i++ {
		g.Add(1)
		go func() {
			defer g.Done()
			assert.Nil(t, s.Save(ctx, "alice", testRecord("alice")))
		}()
	}
	g.Wait()

	count, err := repo.Count(ctx)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_SizeLimit(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, nil, nil, WithConfig(Config{RecordSizeLimit: 16}))

	err := s.Save(context.Background(), "alice", testRecord("alice"))
	assert.NotNil(t, err)

	codeErr, ok := err.(*code.Code)
	assert.True(t, ok)
	assert.Equal(t, code.ErrorStorageQuota.Code(), codeErr.Code())

	// 超限写入不落地
	raw, _ := repo.Get(context.Background(), "alice")
	assert.Nil(t, raw)
}

func TestStore_MirrorAsyncWrite(t *testing.T) {
	repo := newMemRepo()
	mirror, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	assert.Nil(t, err)

	wpCfg := workerpool.DefaultConfig()
	wp := workerpool.New(&wpCfg, zap.NewNop())
	defer wp.Shutdown(context.Background())

	s := New(repo, nil, wp, WithMirror(mirror))
	assert.Nil(t, s.Save(context.Background(), "alice", testRecord("alice")))

	// 镜像写入是异步的，轮询等待
	deadline := time.Now().Add(3 * time.Second)
	for {
		content, err := mirror.GetContent(MirrorKey("alice"))
		if err == nil {
			var rec domain.UserRecord
			assert.Nil(t, convert.Unmarshal(content, &rec))
			assert.Equal(t, "alice", rec.Username)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("mirror copy not written in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStore_LoadSkipsCorruptedAndRehydrates(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	// 主存中一条完好、一条损坏
	good, _ := convert.Marshal(testRecord("alice"))
	assert.Nil(t, repo.Put(ctx, "alice", good))
	assert.Nil(t, repo.Put(ctx, "bob", []byte("{corrupted")))

	// 镜像持有 bob 的完好副本
	mirror, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	assert.Nil(t, err)
	bobRaw, _ := convert.Marshal(testRecord("bob"))
	_, err = mirror.PutContent(MirrorKey("bob"), bobRaw)
	assert.Nil(t, err)

	wpCfg := workerpool.DefaultConfig()
	wp := workerpool.New(&wpCfg, zap.NewNop())
	defer wp.Shutdown(context.Background())

	s := New(repo, nil, wp, WithMirror(mirror))
	assert.Nil(t, s.Load(ctx))

	// 完好记录立即可用
	rec, err := s.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.NotNil(t, rec)

	// 损坏记录由镜像后台修复
	deadline := time.Now().Add(3 * time.Second)
	for {
		rec, err := s.Get(ctx, "bob")
		assert.Nil(t, err)
		if rec != nil {
			assert.Equal(t, "bob", rec.Username)
			raw, _ := repo.Get(ctx, "bob")
			var repaired domain.UserRecord
			assert.Nil(t, convert.Unmarshal(raw, &repaired))
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("record not rehydrated in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStore_RehydratesAfterPrimaryLoss(t *testing.T) {
	ctx := context.Background()

	// 镜像持有两个用户的副本，主存为空（整库丢失场景）
	mirror, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	assert.Nil(t, err)
	for _, username := range []string{"alice", "bob"} {
		raw, _ := convert.Marshal(testRecord(username))
		_, err = mirror.PutContent(MirrorKey(username), raw)
		assert.Nil(t, err)
	}

	wpCfg := workerpool.DefaultConfig()
	wp := workerpool.New(&wpCfg, zap.NewNop())
	defer wp.Shutdown(context.Background())

	repo := newMemRepo()
	s := New(repo, nil, wp, WithMirror(mirror))
	assert.Nil(t, s.Load(ctx))

	// 两条记录都从镜像找回，主存同步回写
	deadline := time.Now().Add(3 * time.Second)
	for {
		if s.Exists("alice") && s.Exists("bob") {
			rec, err := s.Get(ctx, "alice")
			assert.Nil(t, err)
			assert.Equal(t, "alice", rec.Username)
			raw, _ := repo.Get(ctx, "bob")
			var repaired domain.UserRecord
			assert.Nil(t, convert.Unmarshal(raw, &repaired))
			assert.Equal(t, "bob", repaired.Username)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("records not rehydrated after primary loss")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStore_DeleteAndNotify(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, nil, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var changed []string
	s.OnChange(func(username string) {
		mu.Lock()
		changed = append(changed, username)
		mu.Unlock()
	})

	assert.Nil(t, s.Save(ctx, "alice", testRecord("alice")))
	assert.True(t, s.Exists("alice"))

	assert.Nil(t, s.Delete(ctx, "alice"))
	assert.False(t, s.Exists("alice"))

	rec, err := s.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Nil(t, rec)

	mu.Lock()
	assert.Equal(t, []string{"alice", "alice"}, changed)
	mu.Unlock()
}

// 任意记录经保存再读取后内容不变
func TestStore_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	genNote := gopter.CombineGens(
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.SliceOf(gen.Identifier()),
		gen.Bool(),
		gen.Bool(),
	).Map(func(vals []interface{}) *domain.Note {
		return &domain.Note{
			ID:         vals[0].(string),
			Title:      vals[1].(string),
			PlainText:  vals[2].(string),
			Tags:       vals[3].([]string),
			IsPinned:   vals[4].(bool),
			IsFavorite: vals[5].(bool),
		}
	})

	properties.Property("save then get preserves record", prop.ForAll(
		func(username string, notes []*domain.Note) bool {
			repo := newMemRepo()
			s := New(repo, nil, nil)
			ctx := context.Background()

			in := &domain.UserRecord{
				Username:       username,
				PasswordDigest: "digest",
				Notes:          notes,
			}
			if err := s.Save(ctx, username, in); err != nil {
				return false
			}
			out, err := s.Get(ctx, username)
			if err != nil || out == nil {
				return false
			}

			inRaw, _ := convert.Marshal(in)
			outRaw, _ := convert.Marshal(out)
			return string(inRaw) == string(outRaw)
		},
		gen.Identifier(),
		gen.SliceOf(genNote),
	))

	properties.TestingRun(t)
}
