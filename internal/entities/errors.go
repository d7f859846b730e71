package entities

import "errors"

// Domain errors shared by services, repositories and handlers. Repositories
// translate driver errors into these; handlers map them onto HTTP statuses.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidAsset = errors.New("invalid asset")
)
