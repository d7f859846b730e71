package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// WhitelistRepository is the storage the whitelist service talks to.
type WhitelistRepository interface {
	InsertToken(ctx context.Context, symbol string) error
	DeleteToken(ctx context.Context, symbol string) error
	TokenExists(ctx context.Context, symbol string) (bool, error)
	FindTokens(ctx context.Context) ([]entities.WhitelistEntry, error)
}

// WhitelistService manages the set of bridgeable symbols. Symbols are keyed
// in normalized (lower-case) form, so "XYZ" and "xyz" name the same entry.
type WhitelistService struct {
	logger *slog.Logger
	guard  *Guard
	repo   WhitelistRepository
}

func NewWhitelistService(logger *slog.Logger, guard *Guard, repo WhitelistRepository) *WhitelistService {
	return &WhitelistService{logger: logger, guard: guard, repo: repo}
}

func (s *WhitelistService) AddToken(ctx context.Context, actor entities.Actor, symbol string) (entities.WhitelistEntry, error) {
	if err := s.guard.Authorize(actor); err != nil {
		return entities.WhitelistEntry{}, err
	}

	normalized := entities.NormalizeSymbol(symbol)
	if normalized == "" {
		return entities.WhitelistEntry{}, fmt.Errorf("%w: empty symbol", entities.ErrInvalidAsset)
	}

	// Uniqueness comes from the table's key; a duplicate insert fails there.
	if err := s.repo.InsertToken(ctx, normalized); err != nil {
		return entities.WhitelistEntry{}, err
	}

	return entities.WhitelistEntry{Symbol: normalized, CreatedAt: time.Now()}, nil
}

func (s *WhitelistService) RemoveToken(ctx context.Context, actor entities.Actor, symbol string) error {
	if err := s.guard.Authorize(actor); err != nil {
		return err
	}

	return s.repo.DeleteToken(ctx, entities.NormalizeSymbol(symbol))
}

func (s *WhitelistService) ListTokens(ctx context.Context) ([]entities.WhitelistEntry, error) {
	return s.repo.FindTokens(ctx)
}

// IsWhitelisted is the deposit gate's membership check. It looks the symbol
// up at call time; removing a token later does not touch existing orders.
func (s *WhitelistService) IsWhitelisted(ctx context.Context, symbol string) (bool, error) {
	return s.repo.TokenExists(ctx, entities.NormalizeSymbol(symbol))
}
