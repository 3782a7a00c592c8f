// ABOUTME: Read-only market and news fetchers consulted by agent handlers.
// ABOUTME: PriceFeed reads the PriceStore; StaticNews serves canned headlines.

package collab

import (
	"context"

	"github.com/credolabs/credo-gateway/internal/agent"
	"github.com/credolabs/credo-gateway/internal/store"
)

// PriceFeed adapts the PriceStore into the read-only market fetch
// handlers consult. Handlers never see the store itself.
type PriceFeed struct {
	prices *store.PriceStore
}

// NewPriceFeed creates a feed over the given price store.
func NewPriceFeed(prices *store.PriceStore) *PriceFeed {
	return &PriceFeed{prices: prices}
}

// CurrentPrices returns the live snapshot.
func (f *PriceFeed) CurrentPrices(ctx context.Context) (store.PriceSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.PriceSnapshot{}, err
	}
	return f.prices.Get(), nil
}

// StaticNews serves a fixed rotation of demo headlines.
type StaticNews struct {
	headlines []agent.Headline
}

// NewStaticNews creates the demo news feed.
func NewStaticNews() *StaticNews {
	return &StaticNews{
		headlines: []agent.Headline{
			{Title: "Private credit inflows hit quarterly record", Source: "CreditWire", Sentiment: 0.6},
			{Title: "Senior tranche spreads tighten on strong repayment data", Source: "PoolWatch", Sentiment: 0.4},
			{Title: "Regulators eye disclosure rules for tokenized debt", Source: "LedgerDaily", Sentiment: -0.2},
			{Title: "Equity tranche yields diverge across marketplace pools", Source: "PoolWatch", Sentiment: -0.1},
		},
	}
}

// TopHeadlines returns up to n headlines.
func (s *StaticNews) TopHeadlines(ctx context.Context, n int) ([]agent.Headline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 || n > len(s.headlines) {
		n = len(s.headlines)
	}
	return append([]agent.Headline(nil), s.headlines[:n]...), nil
}
