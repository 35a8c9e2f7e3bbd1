package holdings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dokyun/folio/internal/contracts"
)

// Repository handles broker account and manual holding persistence
// ⭐ SSOT: 보유 종목 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new holdings repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.HoldingsStore = (*Repository)(nil)

// ==============================================
// Broker Account Operations
// ==============================================

// CreateBrokerAccount registers a broker + label for a user.
func (r *Repository) CreateBrokerAccount(ctx context.Context, userID int64, broker, label string) (*contracts.BrokerAccount, error) {
	query := `
		INSERT INTO folio.broker_accounts (user_id, broker, label)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	account := contracts.BrokerAccount{
		UserID: userID,
		Broker: broker,
		Label:  label,
	}

	err := r.pool.QueryRow(ctx, query, userID, broker, label).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create broker account: %w", err)
	}
	return &account, nil
}

// GetBrokerAccounts returns all accounts owned by a user.
func (r *Repository) GetBrokerAccounts(ctx context.Context, userID int64) ([]contracts.BrokerAccount, error) {
	query := `
		SELECT id, user_id, broker, label, created_at
		FROM folio.broker_accounts
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query broker accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]contracts.BrokerAccount, 0)
	for rows.Next() {
		var a contracts.BrokerAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Broker, &a.Label, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan broker account: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// DeleteBrokerAccount removes an account and all of its manual holdings.
// 계좌 삭제는 보유 종목까지 함께 지운다 (단일 트랜잭션).
func (r *Repository) DeleteBrokerAccount(ctx context.Context, userID, accountID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"DELETE FROM folio.manual_holdings WHERE account_id = $1",
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account holdings: %w", err)
	}

	result, err := tx.Exec(ctx,
		"DELETE FROM folio.broker_accounts WHERE id = $1 AND user_id = $2",
		accountID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete broker account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("broker account not found: %d", accountID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ==============================================
// Manual Holding Operations
// ==============================================

// UpsertManualHolding creates or updates one manually-tracked position.
// One row per (account_id, ticker, market); repeated saves overwrite
// quantity and average price.
func (r *Repository) UpsertManualHolding(ctx context.Context, h *contracts.ManualHolding) (*contracts.ManualHolding, error) {
	query := `
		INSERT INTO folio.manual_holdings (
			account_id, ticker, name, market, quantity, avg_price, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (account_id, ticker, market) DO UPDATE SET
			name = EXCLUDED.name,
			quantity = EXCLUDED.quantity,
			avg_price = EXCLUDED.avg_price,
			updated_at = NOW()
		RETURNING id, updated_at
	`

	saved := *h
	err := r.pool.QueryRow(ctx, query,
		h.AccountID, h.Ticker, h.Name, string(h.Market), h.Quantity, h.AvgPrice,
	).Scan(&saved.ID, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert manual holding: %w", err)
	}
	return &saved, nil
}

// GetManualHoldings returns a user's manual holdings, optionally
// narrowed to one market.
func (r *Repository) GetManualHoldings(ctx context.Context, userID int64, market *contracts.Market) ([]contracts.ManualHolding, error) {
	query := `
		SELECT h.id, h.account_id, h.ticker, h.name, h.market, h.quantity, h.avg_price, h.updated_at
		FROM folio.manual_holdings h
		JOIN folio.broker_accounts a ON h.account_id = a.id
		WHERE a.user_id = $1
	`
	args := []interface{}{userID}
	if market != nil {
		query += " AND h.market = $2"
		args = append(args, string(*market))
	}
	query += " ORDER BY h.ticker"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query manual holdings: %w", err)
	}
	defer rows.Close()

	result := make([]contracts.ManualHolding, 0)
	for rows.Next() {
		var h contracts.ManualHolding
		var m string
		err := rows.Scan(&h.ID, &h.AccountID, &h.Ticker, &h.Name, &m, &h.Quantity, &h.AvgPrice, &h.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manual holding: %w", err)
		}
		h.Market = contracts.Market(m)
		result = append(result, h)
	}

	return result, rows.Err()
}

// DeleteManualHolding removes one manual position. The user scope guards
// against deleting through someone else's account.
func (r *Repository) DeleteManualHolding(ctx context.Context, userID, holdingID int64) error {
	query := `
		DELETE FROM folio.manual_holdings h
		USING folio.broker_accounts a
		WHERE h.id = $1 AND h.account_id = a.id AND a.user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, holdingID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete manual holding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("manual holding not found: %d", holdingID)
	}
	return nil
}

// GetManualHolding returns one manual position by id, or nil when absent.
func (r *Repository) GetManualHolding(ctx context.Context, userID, holdingID int64) (*contracts.ManualHolding, error) {
	query := `
		SELECT h.id, h.account_id, h.ticker, h.name, h.market, h.quantity, h.avg_price, h.updated_at
		FROM folio.manual_holdings h
		JOIN folio.broker_accounts a ON h.account_id = a.id
		WHERE h.id = $1 AND a.user_id = $2
	`

	var h contracts.ManualHolding
	var m string
	err := r.pool.QueryRow(ctx, query, holdingID, userID).Scan(
		&h.ID, &h.AccountID, &h.Ticker, &h.Name, &m, &h.Quantity, &h.AvgPrice, &h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get manual holding: %w", err)
	}
	h.Market = contracts.Market(m)
	return &h, nil
}
