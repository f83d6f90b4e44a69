package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/antpack/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func newFileCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	return c
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)

	if _, hit, err := c.Get(ctx, "result:abc"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "result:abc", []byte(`{"fitness":0}`), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "result:abc")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v", hit, err)
	}
	if string(data) != `{"fitness":0}` {
		t.Errorf("Get data = %q", data)
	}

	if err := c.Delete(ctx, "result:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "result:abc"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "result:abc"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(30 * time.Second)
	if _, hit, _ := c.Get(ctx, "short"); !hit {
		t.Error("entry should still be live")
	}

	now = now.Add(time.Hour)
	removed, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d entries, want 1", removed)
	}
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should never expire")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := ResultKeyOpts{Bins: 3, BatchSize: 100, EvaluationBudget: 10000, EvaporationRate: 0.5, Seed: 1}

	key := k.ResultKey("hash123", base)
	if !strings.HasPrefix(key, "result:") {
		t.Errorf("ResultKey = %q, want result: prefix", key)
	}
	if key != k.ResultKey("hash123", base) {
		t.Error("ResultKey should be deterministic")
	}

	variants := []func(*ResultKeyOpts){
		func(o *ResultKeyOpts) { o.Bins = 4 },
		func(o *ResultKeyOpts) { o.Seed = 2 },
		func(o *ResultKeyOpts) { o.EvaporationRate = 0.4 },
		func(o *ResultKeyOpts) { o.Reseed = "once" },
		func(o *ResultKeyOpts) { o.Fitness = "variance" },
	}
	for i, mutate := range variants {
		opts := base
		mutate(&opts)
		if k.ResultKey("hash123", opts) == key {
			t.Errorf("variant %d should change the key", i)
		}
	}
	if k.ResultKey("other", base) == key {
		t.Error("different problem hash should change the key")
	}

	a1 := k.ArtifactKey("r", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("r", ArtifactKeyOpts{Format: "dot"})
	if a1 == a2 || !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey = %q, %q", a1, a2)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "client:123:")
	inner := NewDefaultKeyer()

	got := scoped.ResultKey("h", ResultKeyOpts{Bins: 2})
	if want := "client:123:" + inner.ResultKey("h", ResultKeyOpts{Bins: 2}); got != want {
		t.Errorf("ResultKey = %q, want %q", got, want)
	}
	if keyType(got) != KeyTypeResult {
		t.Errorf("keyType(%q) = %q, want %q", got, keyType(got), KeyTypeResult)
	}
}

func TestKeyType(t *testing.T) {
	tests := map[string]string{
		"result:abc":             "result",
		"artifact:abc":           "artifact",
		"client:1:result:abc":    "result",
		"client:1:artifact:abcd": "artifact",
		"nocolon":                "unknown",
	}
	for key, want := range tests {
		if got := keyType(key); got != want {
			t.Errorf("keyType(%q) = %q, want %q", key, got, want)
		}
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets map[string]int
}

func (h *countingCacheHooks) OnCacheHit(_ context.Context, kt string)  { h.hits[kt]++ }
func (h *countingCacheHooks) OnCacheMiss(_ context.Context, kt string) { h.misses[kt]++ }
func (h *countingCacheHooks) OnCacheSet(_ context.Context, kt string, _ int) {
	h.sets[kt]++
}

func TestObserved(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	h := &countingCacheHooks{hits: map[string]int{}, misses: map[string]int{}, sets: map[string]int{}}
	observability.SetCacheHooks(h)

	ctx := context.Background()
	c := NewObserved(newFileCache(t))
	key := NewDefaultKeyer().ResultKey("p", ResultKeyOpts{})

	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("v"), 0)
	_, _, _ = c.Get(ctx, key)

	if h.misses[KeyTypeResult] != 1 || h.sets[KeyTypeResult] != 1 || h.hits[KeyTypeResult] != 1 {
		t.Errorf("hits/misses/sets = %v/%v/%v, want 1 each", h.hits, h.misses, h.sets)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should match its cause")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	permanent := errors.New("permanent")
	calls = 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return permanent }); err != permanent || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then succeed: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrUnavailable) })
	if !errors.Is(err, ErrUnavailable) || calls != retryAttempts {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrUnavailable) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
