// ABOUTME: Shared intent-matching helpers for the builtin agent variants.
// ABOUTME: Substring keyword checks plus tranche/amount extraction from text.

package agent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/credolabs/credo-gateway/internal/store"
)

// MarketData is the read-only price fetch consulted by the market bot.
type MarketData interface {
	CurrentPrices(ctx context.Context) (store.PriceSnapshot, error)
}

// Headline is one item from the news feed.
type Headline struct {
	Title     string
	Source    string
	Sentiment float64
}

// NewsFetcher is the read-only news fetch consulted by the research agent.
type NewsFetcher interface {
	TopHeadlines(ctx context.Context, n int) ([]Headline, error)
}

// containsAny reports whether the lowercased text contains any keyword.
func containsAny(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var amountPattern = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)\b`)

// parseAmount extracts the first numeric quantity from the text.
// Returns 0 when no usable amount is present; callers apply their own
// default, which must never be zero.
func parseAmount(text string) float64 {
	m := amountPattern.FindString(text)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// parseTranche picks the tranche named in the text, defaulting to senior.
func parseTranche(text string) string {
	switch {
	case containsAny(text, "equity"):
		return "equity"
	case containsAny(text, "junior"):
		return "junior"
	default:
		return "senior"
	}
}
