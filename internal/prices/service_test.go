package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"goldtracker/internal/models"
)

// fakeFetcher returns a scripted answer.
type fakeFetcher struct {
	quotes []models.GoldPrice
	err    error
	calls  int
}

func (f *fakeFetcher) LatestPrices(_ context.Context) ([]models.GoldPrice, error) {
	f.calls++
	return f.quotes, f.err
}

func TestNew_SeedsFallbackDegraded(t *testing.T) {
	svc := New(&fakeFetcher{}, nil)

	snap := svc.Snapshot()
	if !snap.Degraded {
		t.Error("fresh service is not degraded, want fallback-seeded")
	}
	if len(snap.Quotes) == 0 {
		t.Error("fresh service has no quotes, want the fallback set")
	}
}

func TestRefresh_Success_ReplacesQuotes(t *testing.T) {
	fetcher := &fakeFetcher{quotes: []models.GoldPrice{{ID: "SJC", SellPrice: 12100000}}}
	svc := New(fetcher, nil)

	svc.Refresh(context.Background())

	snap := svc.Snapshot()
	if snap.Degraded {
		t.Error("Degraded = true after a successful refresh")
	}
	if len(snap.Quotes) != 1 || snap.Quotes[0].ID != "SJC" {
		t.Errorf("Quotes = %+v, want the fetched list", snap.Quotes)
	}
}

func TestRefresh_Error_ServesFallback(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("api down")}
	svc := New(fetcher, nil)

	svc.Refresh(context.Background())

	snap := svc.Snapshot()
	if !snap.Degraded {
		t.Error("Degraded = false after a failed refresh")
	}
	if len(snap.Quotes) != len(Fallback()) {
		t.Errorf("got %d quotes, want the fallback set", len(snap.Quotes))
	}
}

func TestRefresh_EmptyAnswer_ServesFallback(t *testing.T) {
	fetcher := &fakeFetcher{quotes: nil}
	svc := New(fetcher, nil)

	svc.Refresh(context.Background())

	if !svc.Snapshot().Degraded {
		t.Error("Degraded = false after an empty answer")
	}
}

func TestRefresh_RecoversAfterOutage(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("api down")}
	svc := New(fetcher, nil)
	svc.Refresh(context.Background())

	fetcher.err = nil
	fetcher.quotes = []models.GoldPrice{{ID: "SJC"}}
	svc.Refresh(context.Background())

	if svc.Snapshot().Degraded {
		t.Error("Degraded = true after the API recovered")
	}
}

func TestLookup_KnownType_ReturnsQuote(t *testing.T) {
	fetcher := &fakeFetcher{quotes: []models.GoldPrice{{ID: "SJC", SellPrice: 12100000}}}
	svc := New(fetcher, nil)
	svc.Refresh(context.Background())

	quote, ok := svc.Lookup("SJC")
	if !ok {
		t.Fatal("Lookup(SJC) = not found")
	}
	if float64(quote.SellPrice) != 12100000 {
		t.Errorf("SellPrice = %v, want 12100000", float64(quote.SellPrice))
	}
}

func TestLookup_UnknownType_ReportsAbsence(t *testing.T) {
	svc := New(&fakeFetcher{quotes: []models.GoldPrice{{ID: "SJC"}}}, nil)
	svc.Refresh(context.Background())

	if _, ok := svc.Lookup("UNKNOWN"); ok {
		t.Error("Lookup(UNKNOWN) = found, want absence reported")
	}
}

func TestStart_RefreshesImmediately(t *testing.T) {
	fetcher := &fakeFetcher{quotes: []models.GoldPrice{{ID: "SJC"}}}
	svc := New(fetcher, nil).WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	if fetcher.calls == 0 {
		t.Error("Start() did not refresh immediately")
	}
	if svc.Snapshot().Degraded {
		t.Error("Degraded = true after the initial refresh")
	}
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	svc := New(&fakeFetcher{quotes: []models.GoldPrice{{ID: "SJC"}}}, nil)
	svc.Refresh(context.Background())

	snap := svc.Snapshot()
	snap.Quotes[0].ID = "mutated"

	if q, _ := svc.Lookup("SJC"); q.ID != "SJC" {
		t.Error("mutating a snapshot changed the cached quotes")
	}
}
