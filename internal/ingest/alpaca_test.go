package ingest

import (
	"context"
	"testing"

	"crossbt/internal/domain"
)

func TestBarGathererName(t *testing.T) {
	g := NewBarGatherer("key", "secret", "https://data.alpaca.markets",
		nil, domain.MarketUS, []string{"AAPL"}, 15, "2023-01-01", 4, 200)
	if got := g.Name(); got != "intraday-bars" {
		t.Errorf("BarGatherer.Name() = %q, want %q", got, "intraday-bars")
	}
}

func TestBarGathererRunRequiresSymbols(t *testing.T) {
	g := NewBarGatherer("key", "secret", "",
		nil, domain.MarketUS, nil, 15, "2023-01-01", 4, 200)
	if err := g.Run(context.Background()); err == nil {
		t.Fatal("Run accepted an empty symbol list")
	}
}

func TestBarGathererRunRejectsBadStartDate(t *testing.T) {
	g := NewBarGatherer("key", "secret", "",
		nil, domain.MarketUS, []string{"AAPL"}, 15, "not-a-date", 4, 200)
	if err := g.Run(context.Background()); err == nil {
		t.Fatal("Run accepted an unparseable start date")
	}
}
