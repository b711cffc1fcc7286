package storage

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewClient_LocalFS(t *testing.T) {
	client, err := NewClient(&Config{
		Type:     LOCAL,
		SavePath: t.TempDir(),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	key, err := client.PutContent("mirror/alice.json", []byte(`{"username":"alice"}`))
	if err != nil {
		t.Fatalf("PutContent failed: %v", err)
	}
	if key != "mirror/alice.json" {
		t.Errorf("unexpected key %s", key)
	}

	got, err := client.GetContent("mirror/alice.json")
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if string(got) != `{"username":"alice"}` {
		t.Errorf("content mismatch: %s", got)
	}
}

func TestNewClient_UnknownType(t *testing.T) {
	if _, err := NewClient(&Config{Type: "ftp"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
	if _, err := NewClient(nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for nil config")
	}
}
