package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTempSQLite(t *testing.T) *SQLite {
	t.Helper()
	dir := t.TempDir()
	dsn, err := SQLiteFileDSN(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("dsn error: %v", err)
	}
	s, err := NewSQLite(dsn)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return s
}

func newTempRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, "test:")
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

// exerciseKV runs the behavior every backend must share.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "TASKS"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on absent key, got %v", err)
	}

	if err := kv.Set(ctx, "TASKS", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := kv.Get(ctx, "TASKS")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected value %q", got)
	}

	if err := kv.Set(ctx, "TASKS", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = kv.Get(ctx, "TASKS")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("expected overwritten value, got %q", got)
	}

	if _, err := kv.Get(ctx, "OTHER"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("keys must be independent, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseKV(t, f)
}

func TestFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := f.Set(context.Background(), "TASKS", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "TASKS.json" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}

func TestFile_EmptyDir(t *testing.T) {
	if _, err := NewFile("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestFile_KeysMapOneToOne(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	for _, key := range []string{"TASKS", "TASKS.corrupt", "board-1.v2", "a_b"} {
		if err := f.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}
	for _, key := range []string{"a/b", "../etc", "", ".tmp-1", ".", "a b", "tâche"} {
		if err := f.Set(ctx, key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("set %q: expected ErrInvalidKey, got %v", key, err)
		}
		if _, err := f.Get(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("get %q: expected ErrInvalidKey, got %v", key, err)
		}
	}

	got, err := f.Get(ctx, "a_b")
	if err != nil || string(got) != "a_b" {
		t.Fatalf("a_b = %q, %v", got, err)
	}
}

func TestSQLite(t *testing.T) {
	exerciseKV(t, newTempSQLite(t))
}

func TestRedis(t *testing.T) {
	r, _ := newTempRedis(t)
	exerciseKV(t, r)
}

func TestRedis_UsesPrefix(t *testing.T) {
	r, mr := newTempRedis(t)
	if err := r.Set(context.Background(), "TASKS", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("test:TASKS")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	if got != "[]" {
		t.Fatalf("unexpected raw value %q", got)
	}
}

func TestDialRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := DialRedis(context.Background(), addr, DefaultRedisPrefix); err == nil {
		t.Fatalf("expected ping error for closed server")
	}
}
