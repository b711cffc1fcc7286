package dao

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()

	cfg := DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "db.sqlite3"),
		AutoMigrate: true,
	}
	db, err := NewDBEngineWithConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(db, context.Background(), WithConfig(&cfg))
}

func TestKeyspaceRepository_PutGet(t *testing.T) {
	d := newTestDao(t)
	repo := NewKeyspaceRepository(d)
	ctx := context.Background()

	// 不存在的键返回 (nil, nil)
	v, err := repo.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Nil(t, v)

	err = repo.Put(ctx, "alice", []byte(`{"username":"alice"}`))
	assert.Nil(t, err)

	v, err = repo.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Equal(t, []byte(`{"username":"alice"}`), v)

	// 覆盖写
	err = repo.Put(ctx, "alice", []byte(`{"username":"alice","notes":[]}`))
	assert.Nil(t, err)

	v, err = repo.Get(ctx, "alice")
	assert.Nil(t, err)
	assert.Equal(t, []byte(`{"username":"alice","notes":[]}`), v)

	count, err := repo.Count(ctx)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)
}

func TestKeyspaceRepository_DeleteAndList(t *testing.T) {
	d := newTestDao(t)
	repo := NewKeyspaceRepository(d)
	ctx := context.Background()

	assert.Nil(t, repo.Put(ctx, "bob", []byte("b")))
	assert.Nil(t, repo.Put(ctx, "alice", []byte("a")))

	entries, err := repo.ListAll(ctx)
	assert.Nil(t, err)
	assert.Len(t, entries, 2)
	// 按键序返回
	assert.Equal(t, "alice", entries[0].Key)
	assert.Equal(t, "bob", entries[1].Key)

	// 删除不存在的键不报错
	assert.Nil(t, repo.Delete(ctx, "carol"))

	assert.Nil(t, repo.Delete(ctx, "bob"))
	v, err := repo.Get(ctx, "bob")
	assert.Nil(t, err)
	assert.Nil(t, v)
}
