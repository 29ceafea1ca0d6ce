// Package tenant defines the per-tenant data model: configuration,
// availability states, the setup context passed through a bootstrap
// attempt, and the error taxonomy for setup failures.
package tenant

import "time"

// State is the availability state of a tenant.
type State int

const (
	// Uninitialized means the tenant has configuration but has never
	// been set up.
	Uninitialized State = iota

	// Initializing means a setup attempt is in flight. The hosting
	// layer must answer requests for this tenant with "temporarily
	// unavailable" until the state becomes Running.
	Initializing

	// Running means the tenant is fully provisioned and serving.
	Running

	// Disabled means the tenant was switched off by an operator.
	Disabled
)

// String returns the state name as persisted in settings.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ParseState parses a persisted state name. Unknown names map to
// Uninitialized.
func ParseState(s string) State {
	switch s {
	case "initializing":
		return Initializing
	case "running":
		return Running
	case "disabled":
		return Disabled
	default:
		return Uninitialized
	}
}

// Config holds one tenant's settings. The State field is mutated only
// by the setup orchestrator; everything else is written by the hosting
// layer.
type Config struct {
	// Name uniquely identifies the tenant within the host.
	Name string `yaml:"name" json:"name"`

	// State is the availability state.
	State State `yaml:"-" json:"-"`

	// DatabaseProvider selects the data-store driver (e.g. "sqlite").
	DatabaseProvider string `yaml:"database_provider" json:"database_provider"`

	// ConnectionString is the provider-specific DSN.
	ConnectionString string `yaml:"connection_string" json:"connection_string"`

	// TablePrefix namespaces this tenant's tables within a shared store.
	TablePrefix string `yaml:"table_prefix" json:"table_prefix"`

	// Schema is the database schema name, for providers that have one.
	Schema string `yaml:"schema" json:"schema"`

	// RecipeName selects the setup recipe to run during bootstrap.
	RecipeName string `yaml:"recipe_name" json:"recipe_name"`
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}

// FeatureDescriptor is the durable record of which features are
// enabled for a tenant. The serial number increases on every write.
type FeatureDescriptor struct {
	SerialNumber int
	Features     []string
	Updated      time.Time
}
