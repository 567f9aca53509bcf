package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/feedrank/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "feedrank.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewStore_EmptyPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_PartialUpdateIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.HSet(ctx, "feedrank:post:p1", map[string]string{
		"caption": "Pizza", "embedding": "[1,0,0]", "engagementScore": "3.4",
	}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.HSet(ctx, "feedrank:post:p1", map[string]string{"embedding": "[0,1,0]"}); err != nil {
		t.Fatalf("HSet vector: %v", err)
	}

	m, err := s.HGetAll(ctx, "feedrank:post:p1")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if m["embedding"] != "[0,1,0]" {
		t.Errorf("embedding = %q", m["embedding"])
	}
	if m["engagementScore"] != "3.4" || m["caption"] != "Pizza" {
		t.Errorf("vector write touched other fields: %v", m)
	}
}

func TestHGetAll_MissingKey(t *testing.T) {
	s := newTestStore(t)
	m, err := s.HGetAll(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestExistsAndDel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_ = s.HSet(ctx, "k", map[string]string{"f": "v"})
	ok, err := s.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, _ = s.Exists(ctx, "k")
	if ok {
		t.Error("key still exists after Del")
	}
}

func TestScan_GlobPattern(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.HSetMulti(ctx, []db.HashSetItem{
		{Key: "feedrank:post:p2", Fields: map[string]string{"caption": "b"}},
		{Key: "feedrank:post:p1", Fields: map[string]string{"caption": "a", "tags": "[]"}},
		{Key: "feedrank:user:u1", Fields: map[string]string{"bio": "x"}},
	})
	if err != nil {
		t.Fatalf("HSetMulti: %v", err)
	}

	keys, err := s.Scan(ctx, "feedrank:post:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "feedrank:post:p1" || keys[1] != "feedrank:post:p2" {
		t.Errorf("Scan = %v", keys)
	}
}

func TestKV_TTL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.SetWithTTL(ctx, "emb", []byte("cached"), time.Hour); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	got, err := s.Get(ctx, "emb")
	if err != nil || string(got) != "cached" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Get(ctx, "emb"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after expiry, got %v", err)
	}
}

func TestKV_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_ = s.Set(ctx, "k", []byte("a"))
	_ = s.Set(ctx, "k", []byte("b"))
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "b" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestHSetExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.HSetExisting(ctx, "feedrank:post:ghost", map[string]string{"embedding": "[1,0,0]"})
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if exists, _ := s.Exists(ctx, "feedrank:post:ghost"); exists {
		t.Fatal("write recreated a missing key")
	}

	_ = s.HSet(ctx, "feedrank:post:p1", map[string]string{"caption": "Pizza", "embedding": "[1,0,0]"})
	ok, err = s.HSetExisting(ctx, "feedrank:post:p1", map[string]string{"embedding": "[0,1,0]", "engagementScore": "2"})
	if err != nil || !ok {
		t.Fatalf("existing key: ok=%v err=%v", ok, err)
	}
	m, _ := s.HGetAll(ctx, "feedrank:post:p1")
	if m["caption"] != "Pizza" || m["embedding"] != "[0,1,0]" || m["engagementScore"] != "2" {
		t.Errorf("HGetAll = %v", m)
	}
}
