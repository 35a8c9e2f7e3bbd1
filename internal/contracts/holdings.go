package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingInfo is one broker-account's position in a single instrument,
// as normalized by a reference data adapter. Immutable value.
type HoldingInfo struct {
	Broker   string          `json:"broker"` // unique per-account key, e.g. "kis", "toss"
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// MergedHolding is the reconciled view of one instrument across all brokers.
// Built fresh per query from live adapter calls plus persisted manual
// holdings; never itself persisted.
type MergedHolding struct {
	Ticker     string        `json:"ticker"`
	Name       string        `json:"name"`
	Market     Market        `json:"market"`
	Holdings   []HoldingInfo `json:"holdings"`

	CombinedAvgPrice decimal.Decimal `json:"combined_avg_price"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`

	CurrentPrice decimal.Decimal `json:"current_price"`
	Evaluation   decimal.Decimal `json:"evaluation"`
	ProfitLoss   decimal.Decimal `json:"profit_loss"`
	ProfitRate   decimal.Decimal `json:"profit_rate"` // percent
}

// BrokerAccount identifies one broker + label owned by a user.
// Persisted; deleting an account cascades its manual holdings.
type BrokerAccount struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Broker    string    `json:"broker"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// ManualHolding ties a ticker+market to one manually-tracked account.
// Invariant: unique (account_id, ticker, market).
type ManualHolding struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Market    Market          `json:"market"`
	Quantity  decimal.Decimal `json:"quantity"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}
