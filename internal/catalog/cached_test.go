package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockClient struct {
	Client
	textCalled int
	err        error
}

func (m *mockClient) FetchText(ctx context.Context, key string) (string, error) {
	m.textCalled++
	if m.err != nil {
		return "", m.err
	}
	return "body of " + key, nil
}

type mockCache struct {
	data map[string][]byte
	err  error
}

func (m *mockCache) GetCache(ctx context.Context, key string) ([]byte, error) {
	return m.data[key], m.err
}

func (m *mockCache) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.data[key] = data
	return m.err
}

func (m *mockCache) ClearCache(ctx context.Context) error {
	m.data = make(map[string][]byte)
	return m.err
}

func TestCachedClient_FetchText(t *testing.T) {
	inner := &mockClient{}
	cache := &mockCache{data: make(map[string][]byte)}
	cc := NewCachedClient(inner, cache, time.Hour)

	ctx := context.Background()

	// 1. First call - should call inner client
	body, err := cc.FetchText(ctx, "eula")
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if body != "body of eula" {
		t.Errorf("Unexpected body %q", body)
	}
	if inner.textCalled != 1 {
		t.Errorf("Expected inner client to be called once, got %d", inner.textCalled)
	}

	// 2. Second call - should hit cache
	body, err = cc.FetchText(ctx, "eula")
	if err != nil {
		t.Fatalf("FetchText (cached) failed: %v", err)
	}
	if body != "body of eula" {
		t.Errorf("Unexpected cached body %q", body)
	}
	if inner.textCalled != 1 {
		t.Errorf("Expected inner client to still be called once, got %d", inner.textCalled)
	}

	// 3. Clear cache - should call inner again
	if err := cc.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if _, err := cc.FetchText(ctx, "eula"); err != nil {
		t.Fatalf("FetchText after clear failed: %v", err)
	}
	if inner.textCalled != 2 {
		t.Errorf("Expected inner client to be called twice, got %d", inner.textCalled)
	}
}

func TestCachedClient_ErrorsAreNotCached(t *testing.T) {
	inner := &mockClient{err: errors.New("offline")}
	cache := &mockCache{data: make(map[string][]byte)}
	cc := NewCachedClient(inner, cache, time.Hour)

	if _, err := cc.FetchText(context.Background(), "eula"); err == nil {
		t.Fatal("Expected error")
	}
	if len(cache.data) != 0 {
		t.Errorf("Expected nothing cached, got %v", cache.data)
	}
}

func TestCachedClient_CacheError(t *testing.T) {
	inner := &mockClient{}
	cache := &mockCache{data: make(map[string][]byte), err: errors.New("db locked")}
	cc := NewCachedClient(inner, cache, time.Hour)

	if _, err := cc.FetchText(context.Background(), "eula"); err == nil {
		t.Error("Expected cache read error to propagate")
	}
	if inner.textCalled != 0 {
		t.Errorf("Expected inner client not called, got %d", inner.textCalled)
	}
}
