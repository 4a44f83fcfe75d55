package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/revkit/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "absent"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(absent) error = %v, want not found", err)
	}

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k1")
	if err != nil || string(got) != "v1" {
		t.Errorf("Get(k1) = %q, %v", got, err)
	}

	if err := ms.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete error = %v, want not found", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "ephemeral", []byte("v"), 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := ms.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("Get before expiry error = %v", err)
	}

	// 直接把过期时间拨到过去，避免测试真实等待
	ms.mu.Lock()
	past := time.Now().Add(-time.Second)
	ms.data["ephemeral"].ttl = &past
	ms.mu.Unlock()

	if _, err := ms.Get(ctx, "ephemeral"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after expiry error = %v, want not found", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("BatchGet returned %d entries, want 2", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet values = %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing key present in batch result")
	}
}

func TestMemoryStoreHashOps(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.HSet(ctx, "bundle", "manifest", []byte("m")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if err := ms.HSet(ctx, "bundle", "record_0", []byte("r0")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}

	got, err := ms.HGet(ctx, "bundle", "manifest")
	if err != nil || string(got) != "m" {
		t.Errorf("HGet() = %q, %v", got, err)
	}
	if _, err := ms.HGet(ctx, "bundle", "absent"); !core.IsStoreNotFound(err) {
		t.Errorf("HGet(absent) error = %v, want not found", err)
	}

	all, err := ms.HGetAll(ctx, "bundle")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("HGetAll returned %d fields, want 2", len(all))
	}

	// 相邻 key 不应串进来
	ms.HSet(ctx, "bundle2", "other", []byte("x"))
	all, _ = ms.HGetAll(ctx, "bundle")
	if _, ok := all["other"]; ok {
		t.Error("HGetAll leaked field from another hash")
	}

	if err := ms.HDel(ctx, "bundle"); err != nil {
		t.Fatalf("HDel() error = %v", err)
	}
	all, _ = ms.HGetAll(ctx, "bundle")
	if len(all) != 0 {
		t.Errorf("HGetAll after HDel = %v, want empty", all)
	}
	// 其他 hash 不受影响
	if _, err := ms.HGet(ctx, "bundle2", "other"); err != nil {
		t.Errorf("sibling hash lost: %v", err)
	}
}
