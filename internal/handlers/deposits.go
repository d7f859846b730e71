package handlers

import (
	"context"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

type DepositService interface {
	ListDeposits(ctx context.Context) ([]entities.Deposit, error)
}
