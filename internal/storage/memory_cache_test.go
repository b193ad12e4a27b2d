package storage

import (
	"context"
	"testing"
	"time"

	"github.com/trust-scanner/internal/types"
)

func sampleAnalysis(score float64) types.TrustAnalysis {
	return types.TrustAnalysis{
		TrustScore:      score,
		Classification:  types.ClassificationTrusted,
		Summary:         "test summary",
		Factors:         []types.Factor{{Name: "Age Factor", Score: 15, Description: "old"}},
		Recommendations: []string{"keep it up"},
		RiskAreas:       []string{},
	}
}

func TestMemoryCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(24 * time.Hour)

	if err := cache.Put(ctx, "0xABC", sampleAnalysis(70)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, hit, err := cache.Get(ctx, "0xABC")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit {
		t.Fatal("Get() miss, want hit")
	}
	if got.TrustScore != 70 {
		t.Errorf("TrustScore = %v, want 70", got.TrustScore)
	}
}

func TestMemoryCache_KeyIsCaseFolded(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(24 * time.Hour)

	if err := cache.Put(ctx, "0xAbCdEf", sampleAnalysis(55)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, hit, err := cache.Get(ctx, "0xABCDEF")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit {
		t.Error("checksum-cased lookup missed the lower-cased entry")
	}
}

func TestMemoryCache_TTLBoundaries(t *testing.T) {
	ctx := context.Background()
	ttl := 24 * time.Hour
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	now := base
	cache := NewMemoryCache(ttl).WithClock(func() time.Time { return now })

	if err := cache.Put(ctx, "0xabc", sampleAnalysis(70)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	now = base.Add(ttl - time.Millisecond)
	if _, hit, _ := cache.Get(ctx, "0xabc"); !hit {
		t.Error("entry at TTL-1ms should still be served")
	}

	now = base.Add(ttl + time.Millisecond)
	if _, hit, _ := cache.Get(ctx, "0xabc"); hit {
		t.Error("entry at TTL+1ms should be treated as absent")
	}

	// Lazy expiry drops the entry on lookup
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after expired lookup, want 0", cache.Len())
	}
}

func TestMemoryCache_OverwriteSupersedes(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(24 * time.Hour)

	_ = cache.Put(ctx, "0xabc", sampleAnalysis(10))
	_ = cache.Put(ctx, "0xabc", sampleAnalysis(90))

	got, hit, _ := cache.Get(ctx, "0xabc")
	if !hit {
		t.Fatal("Get() miss, want hit")
	}
	if got.TrustScore != 90 {
		t.Errorf("TrustScore = %v, want the later write 90", got.TrustScore)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestMemoryCache_CallersGetCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(24 * time.Hour)

	original := sampleAnalysis(70)
	_ = cache.Put(ctx, "0xabc", original)

	// Mutating what Put was given must not reach the cached entry
	original.Factors[0].Name = "mutated"
	original.Recommendations[0] = "mutated"

	got, _, _ := cache.Get(ctx, "0xabc")
	if got.Factors[0].Name != "Age Factor" {
		t.Errorf("cached factor name = %q, caller mutation leaked in", got.Factors[0].Name)
	}

	// Mutating what Get returned must not reach the cached entry either
	got.Factors[0].Name = "mutated again"
	again, _, _ := cache.Get(ctx, "0xabc")
	if again.Factors[0].Name != "Age Factor" {
		t.Errorf("cached factor name = %q, reader mutation leaked in", again.Factors[0].Name)
	}
}

func TestMemoryCache_Evict(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(24 * time.Hour)

	_ = cache.Put(ctx, "0xabc", sampleAnalysis(70))
	_ = cache.Put(ctx, "0xdef", sampleAnalysis(30))

	if err := cache.Evict(ctx, "0xABC"); err != nil {
		t.Fatalf("Evict() error = %v", err)
	}
	if _, hit, _ := cache.Get(ctx, "0xabc"); hit {
		t.Error("evicted entry still served")
	}
	if _, hit, _ := cache.Get(ctx, "0xdef"); !hit {
		t.Error("unrelated entry was evicted")
	}

	if err := cache.EvictAll(ctx); err != nil {
		t.Fatalf("EvictAll() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after EvictAll, want 0", cache.Len())
	}
}
