package contracts

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketDataPort is the reference data adapter boundary. All calls are
// suspension points and may fail with transport-level errors distinct
// from the domain taxonomy in errors.go.
type MarketDataPort interface {
	// FetchQuote returns the current price of one instrument.
	FetchQuote(ctx context.Context, ticker string, market Market) (decimal.Decimal, error)

	// FetchCandidates returns the base screening universe for a market.
	FetchCandidates(ctx context.Context, market Market, filter CandidateFilter) ([]ScreenCandidate, error)

	// FetchEnrichment returns the per-candidate advanced fields.
	FetchEnrichment(ctx context.Context, ticker string, market Market) (*Enrichment, error)
}

// ExecutableBrokerPort is the one API-connected broker that supports
// both position queries and programmatic order placement.
type ExecutableBrokerPort interface {
	// Broker returns the account key this broker contributes to
	// HoldingInfo.Broker (e.g. "kis").
	Broker() string

	// FetchHoldings returns all positions in the executable account.
	FetchHoldings(ctx context.Context) ([]BrokerHolding, error)
}

// BrokerHolding is an executable-broker position before instrument merge.
type BrokerHolding struct {
	Ticker   string
	Name     string
	Market   Market
	Quantity decimal.Decimal
	AvgPrice decimal.Decimal
}

// HoldingsStore is the persistence collaborator for user-owned records.
// The engine only reads through it; writes stay outside the engine's
// transaction boundary.
type HoldingsStore interface {
	GetBrokerAccounts(ctx context.Context, userID int64) ([]BrokerAccount, error)
	GetManualHoldings(ctx context.Context, userID int64, market *Market) ([]ManualHolding, error)
}
