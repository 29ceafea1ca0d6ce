package tenant

import "github.com/artpar/shellhost/domain/recipe"

// Well-known property names staged into a SetupContext so recipe
// steps executed later can read them.
const (
	PropAdminUsername = "AdminUsername"
	PropAdminUserID   = "AdminUserId"
	PropAdminEmail    = "AdminEmail"
	PropAdminPassword = "AdminPassword"
	PropSiteName      = "SiteName"
	PropDatabaseFile  = "DatabaseFile"
)

// SetupContext carries the state of one setup attempt. It is created
// fresh per Setup call and discarded afterwards.
type SetupContext struct {
	// Settings is the tenant configuration being provisioned.
	Settings *Config

	// EnabledFeatures is the caller-requested feature list. The
	// orchestrator merges it with the mandatory core set.
	EnabledFeatures []string

	// Properties is the property bag (admin identity, site name, ...)
	// readable by recipe steps.
	Properties map[string]string

	// Recipe is the setup recipe to execute, if any.
	Recipe *recipe.Descriptor

	// ExecutionID is generated by the orchestrator and identifies the
	// recipe execution.
	ExecutionID string

	// Errors accumulates recoverable, user-facing failures.
	Errors []SetupError
}

// AddError appends one user-facing error to the context.
func (sc *SetupContext) AddError(field, message string) {
	sc.Errors = append(sc.Errors, SetupError{Field: field, Message: message})
}

// HasErrors reports whether any recoverable error was accumulated.
func (sc *SetupContext) HasErrors() bool {
	return len(sc.Errors) > 0
}

// Property returns a staged property, or "" when absent.
func (sc *SetupContext) Property(name string) string {
	if sc.Properties == nil {
		return ""
	}
	return sc.Properties[name]
}

// SetProperty stages a property for later recipe steps.
func (sc *SetupContext) SetProperty(name, value string) {
	if sc.Properties == nil {
		sc.Properties = make(map[string]string)
	}
	sc.Properties[name] = value
}
