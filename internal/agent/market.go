// ABOUTME: Market bot agent variant: tranche pricing and trade intents.
// ABOUTME: Price/market/yield intents emit PredictPrice; trade intents ExecuteTrade.

package agent

import (
	"context"
	"fmt"
)

// defaultTradeAmount is used when a trade intent carries no usable
// amount. Never zero.
const defaultTradeAmount = 1000.0

// MarketBot answers pricing questions and turns trade intents into
// ExecuteTrade actions. It consults the read-only market fetcher but
// emits no side effects itself.
type MarketBot struct {
	desc   Descriptor
	market MarketData
}

// NewMarketBot creates the builtin market bot variant.
func NewMarketBot(market MarketData) *MarketBot {
	return &MarketBot{
		desc: Descriptor{
			ID:          "market-bot",
			DisplayName: "Market Bot",
			Persona:     "Tranche market maker assistant with live pool pricing.",
			Tags:        []string{"market", "pricing", "trading"},
		},
		market: market,
	}
}

func (a *MarketBot) Descriptor() Descriptor { return a.desc }

// Process checks trade intent before price intent so "buy senior at
// current price" executes rather than quotes.
func (a *MarketBot) Process(ctx context.Context, text string) (string, []Action, error) {
	switch {
	case containsAny(text, "buy", "sell", "trade", "invest", "purchase"):
		tranche := parseTranche(text)
		amount := parseAmount(text)
		if amount <= 0 {
			amount = defaultTradeAmount
		}
		reply := fmt.Sprintf("Placing an order for %.0f units of the %s tranche. "+
			"You'll get a notification once the trade settles.", amount, tranche)
		return reply, []Action{{
			Type: ActionExecuteTrade,
			Payload: map[string]any{
				"tranche": tranche,
				"amount":  amount,
			},
		}}, nil

	case containsAny(text, "price", "market", "yield", "apy", "return"):
		reply := a.quoteReply(ctx, text)
		return reply, []Action{{
			Type: ActionPredictPrice,
			Payload: map[string]any{
				"horizon": "24h",
				"request": text,
			},
		}}, nil

	default:
		return "I'm the market bot. Ask me about tranche prices and yields, " +
			"or tell me to buy or sell a position.", nil, nil
	}
}

// quoteReply renders current prices. The fetch is read-only and
// best-effort; a failing market feed degrades to a generic answer.
func (a *MarketBot) quoteReply(ctx context.Context, text string) string {
	snap, err := a.market.CurrentPrices(ctx)
	if err != nil {
		return "Market data is momentarily unavailable, but I've queued a " +
			"fresh yield and price prediction for you."
	}
	if containsAny(text, "yield", "apy", "return") {
		return fmt.Sprintf("Current yields: senior %.2f%%, junior %.2f%%, equity %.2f%%. "+
			"I'm running a price prediction to project where each yield heads next.",
			snap.Yields.Senior*100, snap.Yields.Junior*100, snap.Yields.Equity*100)
	}
	return fmt.Sprintf("Tranche prices right now: senior %.4f, junior %.4f, equity %.4f "+
		"across a pool of %d units. Prediction queued for the next move.",
		snap.Senior, snap.Junior, snap.Equity, snap.TotalPool)
}
