// Package idgen generates the identifiers setup hands out: admin user
// ids and recipe execution ids.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/shellhost/ports"
)

// UUID generates random v4 UUIDs.
type UUID struct{}

func (UUID) New() string {
	return uuid.New().String()
}

// Sequential generates predictable prefixed ids for tests.
type Sequential struct {
	prefix  string
	counter uint64
}

// NewSequential creates a generator emitting prefix1, prefix2, ...
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(atomic.AddUint64(&s.counter, 1), 10)
}

// Ensure interface compliance.
var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
