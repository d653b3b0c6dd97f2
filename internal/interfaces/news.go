package interfaces

import (
	"context"

	"stock-signal-advisor/internal/types"
)

// NewsSource fetches recent headlines for a ticker. Implementations return
// their package-level ErrNotConfigured when no credentials are available so
// callers can degrade instead of fail.
type NewsSource interface {
	Headlines(ctx context.Context, ticker, companyName string, limit int) ([]types.NewsHeadline, error)
}
