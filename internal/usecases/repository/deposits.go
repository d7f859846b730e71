package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rebuslabs/tokenbridge/internal/entities"
	"github.com/rebuslabs/tokenbridge/pkg/database"
)

// DepositsRepository journals every accepted inbound custody transfer. The
// (chain, tx_id) unique key makes intake exactly-once per source transaction.
type DepositsRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

func NewDepositsRepository(logger *slog.Logger, pg *database.Postgres) *DepositsRepository {
	return &DepositsRepository{logger: logger, db: pg.DBGetter, transactor: pg.Transactor}
}

// InsertDeposit stores a journal row and fills in its id. A transfer already
// journaled surfaces as entities.ErrDuplicateKey.
func (r *DepositsRepository) InsertDeposit(ctx context.Context, d *entities.Deposit) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO deposits (chain, tx_id, sender, recipient, symbol, precision, amount, memo, bridged, order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`,
		d.Chain, d.TxID, d.Sender, d.Recipient, d.Symbol, d.Precision, d.Amount, d.Memo, d.Bridged, d.OrderID,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("deposit %s/%s already journaled: %w", d.Chain, d.TxID, entities.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert deposit: %w", err)
	}

	return nil
}

// MarkDepositBridged links a journal row to the order created for it.
func (r *DepositsRepository) MarkDepositBridged(ctx context.Context, depositID, orderID int64) error {
	_, err := r.db(ctx).Exec(ctx,
		"UPDATE deposits SET bridged = TRUE, order_id = $1 WHERE id = $2", orderID, depositID)
	if err != nil {
		return fmt.Errorf("failed to mark deposit bridged: %w", err)
	}
	return nil
}

// FindDeposits lists the journal, newest first.
func (r *DepositsRepository) FindDeposits(ctx context.Context) ([]entities.Deposit, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, chain, tx_id, sender, recipient, symbol, precision, amount, memo, bridged, order_id, created_at
		   FROM deposits ORDER BY id DESC`)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	deposits, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.Deposit])
	if err != nil {
		r.logger.Error("failed to collect deposits rows", "error", err)
		return nil, err
	}

	return deposits, nil
}
