package handlers

import (
	"context"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

type WhitelistService interface {
	AddToken(ctx context.Context, actor entities.Actor, symbol string) (entities.WhitelistEntry, error)
	RemoveToken(ctx context.Context, actor entities.Actor, symbol string) error
	ListTokens(ctx context.Context) ([]entities.WhitelistEntry, error)
}
