package interfaces

import (
	"context"
	"errors"

	"stock-signal-advisor/internal/types"
)

// ErrNotFound marks a ticker with no price data. It is the expected domain
// error distinguishable from transient upstream failures.
var ErrNotFound = errors.New("ticker not found")

// StockHandle is a per-ticker view over the market data provider. Descriptive
// metadata is fetched lazily, exactly once, via Prime; implementations must
// make Prime safe to call before handing the handle to concurrent tasks.
type StockHandle interface {
	Ticker() string
	// Prime forces the one-time metadata fetch. Concurrent accessors after a
	// successful Prime never trigger a second upstream call.
	Prime(ctx context.Context) error
	// Price returns the current snapshot, or ErrNotFound when the ticker is unknown.
	Price(ctx context.Context) (*types.PriceData, error)
	// CompanyName returns the long (or short) company name, empty when unknown.
	CompanyName(ctx context.Context) (string, error)
	// Fundamentals returns the raw metrics record, normalized to documented
	// units, without the derived score.
	Fundamentals(ctx context.Context) (*types.FundamentalAnalysis, error)
	// History returns the chronological OHLCV series for indicator computation.
	History(ctx context.Context) ([]types.Candle, error)
}

// MarketData resolves tickers into handles.
type MarketData interface {
	Lookup(ticker string) StockHandle
}
