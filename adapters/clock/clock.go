// Package clock abstracts time so the orchestrator's descriptor
// timestamps can be pinned in tests.
package clock

import (
	"time"

	"github.com/artpar/shellhost/ports"
)

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a clock pinned to one instant, for tests asserting on
// persisted timestamps.
type Fake struct {
	current time.Time
}

// NewFake creates a clock pinned to t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

func (f *Fake) Now() time.Time {
	return f.current
}

// Ensure interface compliance.
var (
	_ ports.Clock = Real{}
	_ ports.Clock = (*Fake)(nil)
)
