package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SidharthK2/polymarket-agent/internal/domain"
)

// OrderLogStore implements domain.OrderLogStore using PostgreSQL. The table
// is an append-only journal of every submission attempt; rows are never
// deleted, only their status advances.
type OrderLogStore struct {
	pool *pgxpool.Pool
}

// NewOrderLogStore creates an OrderLogStore backed by the given pool.
func NewOrderLogStore(pool *pgxpool.Pool) *OrderLogStore {
	return &OrderLogStore{pool: pool}
}

// Create inserts a new journal row.
func (s *OrderLogStore) Create(ctx context.Context, rec domain.OrderRecord) error {
	const query = `
		INSERT INTO order_log (
			id, token_id, condition_id, side, order_type,
			price, size, maker_amount, taker_amount,
			status, exchange_order_id, signature, error_message,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.TokenID, rec.ConditionID,
		string(rec.Side), string(rec.Type),
		rec.Price, rec.Size, rec.MakerAmount, rec.TakerAmount,
		string(rec.Status), rec.ExchangeOrderID, rec.Signature, rec.ErrorMessage,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create order log %s: %w", rec.ID, err)
	}
	return nil
}

// UpdateStatus advances the status of a journal row and records the error
// message for rejected submissions.
func (s *OrderLogStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, errMsg string) error {
	const query = `
		UPDATE order_log
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3`

	tag, err := s.pool.Exec(ctx, query, string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("postgres: update order log status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetExchangeID records the exchange-assigned order ID on a journal row.
func (s *OrderLogStore) SetExchangeID(ctx context.Context, id, exchangeID string) error {
	const query = `
		UPDATE order_log
		SET exchange_order_id = $1, updated_at = NOW()
		WHERE id = $2`

	tag, err := s.pool.Exec(ctx, query, exchangeID, id)
	if err != nil {
		return fmt.Errorf("postgres: set exchange id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const orderLogCols = `id, token_id, condition_id, side, order_type,
	price, size, maker_amount, taker_amount,
	status, exchange_order_id, signature, error_message,
	created_at, updated_at`

func scanOrderLogRow(scanner interface{ Scan(dest ...any) error }) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	var side, orderType, status string

	err := scanner.Scan(
		&rec.ID, &rec.TokenID, &rec.ConditionID,
		&side, &orderType,
		&rec.Price, &rec.Size, &rec.MakerAmount, &rec.TakerAmount,
		&status, &rec.ExchangeOrderID, &rec.Signature, &rec.ErrorMessage,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.OrderRecord{}, err
	}

	rec.Side = domain.OrderSide(side)
	rec.Type = domain.OrderType(orderType)
	rec.Status = domain.OrderStatus(status)
	return rec, nil
}

// GetByID retrieves one journal row.
func (s *OrderLogStore) GetByID(ctx context.Context, id string) (domain.OrderRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderLogCols+` FROM order_log WHERE id = $1`, id)

	rec, err := scanOrderLogRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderRecord{}, domain.ErrNotFound
		}
		return domain.OrderRecord{}, fmt.Errorf("postgres: get order log %s: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns journal rows newest first, with pagination and optional
// time filtering.
func (s *OrderLogStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.OrderRecord, error) {
	query := `SELECT ` + orderLogCols + ` FROM order_log WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list order log: %w", err)
	}
	defer rows.Close()

	var recs []domain.OrderRecord
	for rows.Next() {
		rec, err := scanOrderLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan order log: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list order log rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.OrderLogStore = (*OrderLogStore)(nil)
