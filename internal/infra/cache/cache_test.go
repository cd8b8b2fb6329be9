package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/infra/cache"
	"github.com/boddenberg/cielo-gateway-go/internal/port"
)

var _ port.Cache[string] = (*cache.InMemory[string])(nil)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("10069930690009F2001A", "captured")
	val, ok := c.Get("10069930690009F2001A")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "captured" {
		t.Errorf("expected 'captured', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[int](5 * time.Minute)
	defer c.Close()

	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("tid", "authorized")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("tid"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SweepRemovesExpired(t *testing.T) {
	c := cache.New[string](20 * time.Millisecond)
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	time.Sleep(120 * time.Millisecond)

	if n := c.Len(); n != 0 {
		t.Errorf("expected expired entries to be swept, %d left", n)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("tid", "authorized")
	c.Delete("tid")

	if _, ok := c.Get("tid"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DisabledWithZeroTTL(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	c.Set("tid", "authorized")
	if _, ok := c.Get("tid"); ok {
		t.Fatal("expected nothing stored with a zero TTL")
	}

	c.Close()
}
