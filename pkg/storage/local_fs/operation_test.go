package local_fs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFS_PutAndGetContent(t *testing.T) {
	tempDir := t.TempDir()

	client, err := NewClient(&Config{
		SavePath: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// Test with a subdirectory to ensure PutContent creates directories
	pathKey := "static-v1/ab/cdef0123.json"
	content := []byte(`{"status":200,"body":"hello"}`)

	savedKey, err := client.PutContent(pathKey, content)
	if err != nil {
		t.Fatalf("PutContent failed: %v", err)
	}
	if savedKey != pathKey {
		t.Errorf("Key mismatch: expected %s, got %s", pathKey, savedKey)
	}

	// Verify file existence on disk
	if _, err := os.Stat(filepath.Join(tempDir, pathKey)); os.IsNotExist(err) {
		t.Fatalf("File not found at %s", pathKey)
	}

	got, err := client.GetContent(pathKey)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Content mismatch: expected %s, got %s", content, got)
	}
}

func TestLocalFS_GetContentMissing(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.GetContent("no/such/key"); err == nil {
		t.Fatal("expected error for missing key, got nil")
	}
}

func TestLocalFS_DeleteAndDeletePrefix(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	keys := []string{
		"static-v1/a.json",
		"static-v1/b.json",
		"static-v2/a.json",
		"mirror/alice.json",
	}
	for _, k := range keys {
		if _, err := client.PutContent(k, []byte("x")); err != nil {
			t.Fatalf("PutContent(%s) failed: %v", k, err)
		}
	}

	// Delete is idempotent on missing keys
	if err := client.Delete("static-v1/missing.json"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}

	if err := client.Delete("mirror/alice.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := client.GetContent("mirror/alice.json"); err == nil {
		t.Fatal("deleted key still readable")
	}

	if err := client.DeletePrefix("static-v1"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}

	remaining, err := client.ListKeys("")
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "static-v2/a.json" {
		t.Errorf("unexpected remaining keys: %v", remaining)
	}
}

func TestLocalFS_ListKeysByPrefix(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	for _, k := range []string{"mirror/alice.json", "mirror/bob.json", "static-v3/c.json"} {
		if _, err := client.PutContent(k, []byte("x")); err != nil {
			t.Fatalf("PutContent(%s) failed: %v", k, err)
		}
	}

	keys, err := client.ListKeys("mirror")
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("expected 2 mirror keys, got %v", keys)
	}
	for _, k := range keys {
		if k != "mirror/alice.json" && k != "mirror/bob.json" {
			t.Errorf("unexpected key %s", k)
		}
	}
}
