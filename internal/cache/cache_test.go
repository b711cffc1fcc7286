package cache

import (
	"testing"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/store"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/storage/local_fs"
	"github.com/haierkeys/offline-note-vault/pkg/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBackend(t *testing.T) *local_fs.LocalFS {
	t.Helper()
	backend, err := local_fs.NewClient(&local_fs.Config{SavePath: t.TempDir()})
	require.NoError(t, err)
	return backend
}

func TestResponseCache_PutGet(t *testing.T) {
	backend := newTestBackend(t)
	c := New(backend, "v3", zap.NewNop())

	entry := &Entry{
		URL:       "https://cdn.quilljs.com/1.3.6/quill.min.js",
		Status:    200,
		Header:    map[string]string{"Content-Type": "application/javascript"},
		Body:      []byte("window.Quill={};"),
		FetchedAt: timex.Time(time.Now()),
	}
	require.NoError(t, c.Put(entry))

	got, err := c.Get(entry.URL)
	require.NoError(t, err)
	assert.Equal(t, entry.Status, got.Status)
	assert.Equal(t, entry.Body, got.Body)
	assert.Equal(t, "application/javascript", got.Header["Content-Type"])

	_, err = c.Get("https://example.com/never-cached.js")
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound)
}

func TestResponseCache_PurgeStale(t *testing.T) {
	backend := newTestBackend(t)

	// 旧代与新代各写入一条
	old := New(backend, "v2", zap.NewNop())
	require.NoError(t, old.Put(&Entry{URL: "https://a.example/app.js", Status: 200, Body: []byte("old")}))

	cur := New(backend, "v3", zap.NewNop())
	require.NoError(t, cur.Put(&Entry{URL: "https://a.example/app.js", Status: 200, Body: []byte("new")}))

	// 镜像命名空间必须保留
	mirrorKey := store.MirrorNamespace + "/alice.json"
	_, err := backend.PutContent(mirrorKey, []byte(`{"username":"alice"}`))
	require.NoError(t, err)

	require.NoError(t, cur.PurgeStale())

	_, err = old.Get("https://a.example/app.js")
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound, "old generation should be gone")

	got, err := cur.Get("https://a.example/app.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Body)

	mirror, err := backend.GetContent(mirrorKey)
	require.NoError(t, err)
	assert.NotEmpty(t, mirror)
}

// 全量清除只触及缓存代与镜像，同后端的备份命名空间保持原样
func TestResponseCache_PurgeAllKeepsForeignNamespaces(t *testing.T) {
	backend := newTestBackend(t)

	old := New(backend, "v2", zap.NewNop())
	require.NoError(t, old.Put(&Entry{URL: "https://a.example/app.js", Status: 200, Body: []byte("old")}))
	cur := New(backend, "v3", zap.NewNop())
	require.NoError(t, cur.Put(&Entry{URL: "https://a.example/app.js", Status: 200, Body: []byte("new")}))

	mirrorKey := store.MirrorNamespace + "/alice.json"
	_, err := backend.PutContent(mirrorKey, []byte(`{"username":"alice"}`))
	require.NoError(t, err)

	backupKey := "backups/20260826-030000/alice.json"
	_, err = backend.PutContent(backupKey, []byte(`{"formatVersion":"1.0"}`))
	require.NoError(t, err)

	require.NoError(t, cur.PurgeAll())

	_, err = old.Get("https://a.example/app.js")
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound)
	_, err = cur.Get("https://a.example/app.js")
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound)

	_, err = backend.GetContent(mirrorKey)
	assert.Error(t, err, "mirror namespace is part of the purge")

	backup, err := backend.GetContent(backupKey)
	require.NoError(t, err)
	assert.NotEmpty(t, backup)
}

func TestResponseCache_PurgeGeneration(t *testing.T) {
	backend := newTestBackend(t)
	c := New(backend, "v3", zap.NewNop())

	require.NoError(t, c.Put(&Entry{URL: "https://a.example/one.js", Status: 200, Body: []byte("1")}))
	require.NoError(t, c.Put(&Entry{URL: "https://a.example/two.js", Status: 200, Body: []byte("2")}))

	require.NoError(t, c.PurgeGeneration())

	_, err := c.Get("https://a.example/one.js")
	assert.ErrorIs(t, err, code.ErrorCacheEntryNotFound)
}
