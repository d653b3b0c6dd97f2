package cache

import (
	"testing"
	"time"

	"stock-signal-advisor/internal/types"
)

func sampleResponse(ticker string) *types.AnalyzeResponse {
	return &types.AnalyzeResponse{
		Ticker:     ticker,
		Signal:     types.SignalHold,
		Confidence: 0.5,
		Sources:    []types.NewsHeadline{},
	}
}

func TestGetNormalizesTicker(t *testing.T) {
	c := New(time.Minute, 8)
	defer c.Stop()

	c.Set("AAPL", sampleResponse("AAPL"))

	got, ok := c.Get("  aapl ")
	if !ok {
		t.Fatal("expected cache hit for lowercase ticker")
	}
	if got.Ticker != "AAPL" {
		t.Fatalf("got ticker %q, want AAPL", got.Ticker)
	}
}

func TestCachedFlagSetOnRetrievalOnly(t *testing.T) {
	c := New(time.Minute, 8)
	defer c.Stop()

	stored := sampleResponse("AAPL")
	c.Set("AAPL", stored)

	if stored.Metadata.Cached {
		t.Fatal("Set must not mutate the caller's response")
	}

	got, ok := c.Get("AAPL")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Metadata.Cached {
		t.Fatal("retrieved response should be flagged as cached")
	}
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	c := New(time.Minute, 8)
	defer c.Stop()

	c.Set("AAPL", sampleResponse("AAPL"))

	first, _ := c.Get("AAPL")
	first.Ticker = "mutated"
	first.Sources = append(first.Sources, types.NewsHeadline{Title: "x"})

	second, _ := c.Get("AAPL")
	if second.Ticker != "AAPL" || len(second.Sources) != 0 {
		t.Fatal("cached entry was mutated through a returned copy")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(20*time.Millisecond, 8)
	defer c.Stop()

	c.Set("AAPL", sampleResponse("AAPL"))
	if _, ok := c.Get("AAPL"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("AAPL"); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(time.Minute, 2)
	defer c.Stop()

	c.Set("AAPL", sampleResponse("AAPL"))
	time.Sleep(time.Millisecond)
	c.Set("MSFT", sampleResponse("MSFT"))
	time.Sleep(time.Millisecond)

	// Touch AAPL so MSFT becomes the least recently used entry.
	if _, ok := c.Get("AAPL"); !ok {
		t.Fatal("expected hit for AAPL")
	}
	time.Sleep(time.Millisecond)

	c.Set("GOOG", sampleResponse("GOOG"))

	if _, ok := c.Get("MSFT"); ok {
		t.Fatal("expected MSFT to be evicted")
	}
	if _, ok := c.Get("AAPL"); !ok {
		t.Fatal("AAPL should have survived eviction")
	}
	if c.Len() != 2 {
		t.Fatalf("got %d entries, want 2", c.Len())
	}
}
