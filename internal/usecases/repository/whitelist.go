package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rebuslabs/tokenbridge/internal/entities"
	"github.com/rebuslabs/tokenbridge/pkg/database"
)

const uniqueViolationCode = "23505"

// WhitelistRepository owns the whitelist_tokens table, keyed by the
// normalized symbol.
type WhitelistRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

func NewWhitelistRepository(logger *slog.Logger, pg *database.Postgres) *WhitelistRepository {
	return &WhitelistRepository{logger: logger, db: pg.DBGetter, transactor: pg.Transactor}
}

// InsertToken relies on the primary key for uniqueness; a duplicate insert
// surfaces as entities.ErrDuplicateKey.
func (r *WhitelistRepository) InsertToken(ctx context.Context, symbol string) error {
	_, err := r.db(ctx).Exec(ctx, "INSERT INTO whitelist_tokens (symbol) VALUES ($1)", symbol)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("symbol %s already whitelisted: %w", symbol, entities.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert whitelist token: %w", err)
	}

	r.logger.Info("Whitelist token added", "symbol", symbol)
	return nil
}

// DeleteToken returns entities.ErrNotFound when the symbol is absent.
func (r *WhitelistRepository) DeleteToken(ctx context.Context, symbol string) error {
	tag, err := r.db(ctx).Exec(ctx, "DELETE FROM whitelist_tokens WHERE symbol = $1", symbol)
	if err != nil {
		return fmt.Errorf("failed to delete whitelist token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("symbol does not exist: %w", entities.ErrNotFound)
	}

	r.logger.Info("Whitelist token removed", "symbol", symbol)
	return nil
}

// TokenExists checks membership for the deposit gate.
func (r *WhitelistRepository) TokenExists(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM whitelist_tokens WHERE symbol = $1)", symbol).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist membership: %w", err)
	}
	return exists, nil
}

func (r *WhitelistRepository) FindTokens(ctx context.Context) ([]entities.WhitelistEntry, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("symbol", "created_at").
		From("whitelist_tokens").
		OrderBy("symbol").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list tokens query: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.WhitelistEntry])
	if err != nil {
		r.logger.Error("failed to collect whitelist rows", "error", err)
		return nil, err
	}

	return entries, nil
}
