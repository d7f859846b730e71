package usecases

import (
	"crypto/subtle"
	"fmt"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// Guard is the capability check performed at the start of every privileged
// operation. The bridge recognizes exactly one operator identity, fixed at
// startup.
type Guard struct {
	operator entities.Actor
}

func NewGuard(name, key string) *Guard {
	return &Guard{operator: entities.Actor{Name: name, Key: key}}
}

// Authorize rejects any actor that is not the configured operator.
func (g *Guard) Authorize(actor entities.Actor) error {
	if actor.Name != g.operator.Name ||
		subtle.ConstantTimeCompare([]byte(actor.Key), []byte(g.operator.Key)) != 1 {
		return fmt.Errorf("missing authority of %s: %w", g.operator.Name, entities.ErrUnauthorized)
	}
	return nil
}

// Self returns the bridge's own identity, used when internal components
// (deposit intake, relayer) invoke privileged operations.
func (g *Guard) Self() entities.Actor {
	return g.operator
}
