package cache

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestLRUCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		if err := c.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		val, err := c.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		val, err := c.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for miss, got '%s'", val)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		c.Set(ctx, "key1", []byte("old"), time.Minute)
		c.Set(ctx, "key1", []byte("new"), time.Minute)

		val, _ := c.Get(ctx, "key1")
		if string(val) != "new" {
			t.Errorf("expected 'new', got '%s'", val)
		}
		if size, _ := c.Stats(); size != 1 {
			t.Errorf("expected size 1 after overwrite, got %d", size)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		c.Set(ctx, "key1", []byte("value1"), time.Minute)
		if err := c.Delete(ctx, "key1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		val, _ := c.Get(ctx, "key1")
		if val != nil {
			t.Errorf("expected nil after delete, got '%s'", val)
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		c.Set(ctx, "key1", []byte("value1"), 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		val, _ := c.Get(ctx, "key1")
		if val != nil {
			t.Errorf("expected nil after TTL expiry, got '%s'", val)
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		c := NewLRUCache(2)
		defer c.Close()

		c.Set(ctx, "key1", []byte("v1"), time.Minute)
		c.Set(ctx, "key2", []byte("v2"), time.Minute)

		// Touch key1 so key2 becomes the eviction candidate.
		c.Get(ctx, "key1")
		c.Set(ctx, "key3", []byte("v3"), time.Minute)

		if val, _ := c.Get(ctx, "key2"); val != nil {
			t.Errorf("expected key2 evicted, got '%s'", val)
		}
		if val, _ := c.Get(ctx, "key1"); string(val) != "v1" {
			t.Errorf("expected key1 retained, got '%s'", val)
		}
	})

	t.Run("IncrementCounter", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		for want := int64(1); want <= 3; want++ {
			got, err := c.IncrementCounter(ctx, "rate:acc-1", time.Minute)
			if err != nil {
				t.Fatalf("IncrementCounter failed: %v", err)
			}
			if got != want {
				t.Errorf("expected count %d, got %d", want, got)
			}
		}
	})

	t.Run("CounterWindowReset", func(t *testing.T) {
		c := NewLRUCache(10)
		defer c.Close()

		c.IncrementCounter(ctx, "rate:acc-1", 10*time.Millisecond)
		c.IncrementCounter(ctx, "rate:acc-1", 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		got, _ := c.IncrementCounter(ctx, "rate:acc-1", time.Minute)
		if got != 1 {
			t.Errorf("expected counter reset to 1 after window, got %d", got)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 100})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer c.Close()

		if _, ok := c.(*LRUCache); !ok {
			t.Errorf("expected *LRUCache, got %T", c)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported cache type")
		}
	})
}
