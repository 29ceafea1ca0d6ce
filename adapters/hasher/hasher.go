// Package hasher hashes the staged admin password so the plaintext
// never reaches recipe steps or the descriptor store. Verification is
// the tenant application's concern, not the host's.
package hasher

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/shellhost/ports"
)

// Bcrypt hashes with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. An out-of-range cost falls back
// to the bcrypt default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Fake returns the plaintext unchanged, for tests that assert on the
// staged property value. Never for production wiring.
type Fake struct{}

func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(plaintext), nil
}

// Ensure interface compliance.
var (
	_ ports.Hasher = (*Bcrypt)(nil)
	_ ports.Hasher = Fake{}
)
