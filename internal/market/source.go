package market

import (
	"context"
	"strings"
)

// Query identifies one historical window. Dates are "YYYY-MM-DD"; callers are
// responsible for start <= end.
type Query struct {
	Symbol   string
	Interval string
	Start    string
	End      string
}

// Source fetches raw bars for a query in a single outbound request. No retries;
// record order is as received from the provider — Normalize owns ordering.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]RawBar, error)
}

// Router picks a source per symbol: slash-separated pairs (FX style, e.g.
// "EUR/USD") go to the time-series provider, everything else to Binance.
type Router struct {
	fx     Source
	crypto Source
}

func NewRouter(fx, crypto Source) *Router {
	return &Router{fx: fx, crypto: crypto}
}

func (r *Router) Name() string { return "router" }

func (r *Router) Fetch(ctx context.Context, q Query) ([]RawBar, error) {
	return r.pick(q.Symbol).Fetch(ctx, q)
}

func (r *Router) pick(symbol string) Source {
	if r.crypto != nil && !strings.Contains(symbol, "/") {
		return r.crypto
	}
	return r.fx
}
