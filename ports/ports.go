// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and core/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/shellhost/domain/extension"
	"github.com/artpar/shellhost/domain/recipe"
	"github.com/artpar/shellhost/domain/tenant"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher hashes secrets before they are staged as setup properties.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
}

// -----------------------------------------------------------------------------
// Extension Ports
// -----------------------------------------------------------------------------

// FeatureResolver enumerates the features an extension contributes,
// given its descriptor and parsed manifest.
type FeatureResolver interface {
	GetFeatures(ext extension.Descriptor, m extension.ManifestInfo) []extension.FeatureInfo
}

// -----------------------------------------------------------------------------
// Shell Host Ports
// -----------------------------------------------------------------------------

// ShellContext is one tenant's service scope. A context built with
// CreateMinimumContext is isolated: it must never interact with a
// concurrently running full tenant context.
type ShellContext interface {
	// Settings returns the tenant configuration the context was built for.
	Settings() *tenant.Config

	// Features returns the feature ids the context is scoped to.
	Features() []string

	// StoreDescriptor durably persists the tenant's feature descriptor.
	StoreDescriptor(ctx context.Context, desc tenant.FeatureDescriptor) error

	// Release disposes the context and its resources.
	Release() error
}

// ShellHost builds, caches, and reloads tenant shell contexts.
type ShellHost interface {
	// CreateDescribedContext builds a full context scoped to the
	// features named by the descriptor.
	CreateDescribedContext(ctx context.Context, settings *tenant.Config, desc tenant.FeatureDescriptor) (ShellContext, error)

	// CreateMinimumContext builds a minimal isolated context scoped to
	// the given features, used only to persist the initial feature
	// descriptor during setup.
	CreateMinimumContext(ctx context.Context, settings *tenant.Config, features []string) (ShellContext, error)

	// GetScope returns the cached context for a tenant.
	GetScope(tenantName string) (ShellContext, error)

	// ReloadContext rebuilds a tenant's cached context. When broadcast
	// is false the reload must not emit the normal reload notification
	// other subsystems react to.
	ReloadContext(ctx context.Context, settings *tenant.Config, broadcast bool) error

	// UpdateSettings persists the tenant configuration.
	UpdateSettings(ctx context.Context, settings *tenant.Config) error
}

// -----------------------------------------------------------------------------
// Setup Ports
// -----------------------------------------------------------------------------

// ConnectionValidator classifies a proposed data-store connection
// before any tenant data is written behind it.
type ConnectionValidator interface {
	Validate(ctx context.Context, conn tenant.ConnectionInfo) tenant.ConnectionStatus
}

// RecipeExecutor runs an ordered list of declarative steps. A failing
// step surfaces as *tenant.RecipeStepError; anything else is an
// unstructured fault.
type RecipeExecutor interface {
	Execute(ctx context.Context, executionID string, r recipe.Descriptor, properties map[string]string) error
}

// RecipeHarvester discovers recipe descriptors from one source.
type RecipeHarvester interface {
	Harvest(ctx context.Context) ([]recipe.Descriptor, error)
}

// SetupEventHandler observes the outcome of a setup attempt.
type SetupEventHandler interface {
	// Setup runs after the tenant context has been rebuilt and before
	// the tenant is marked running. Errors it appends to the context
	// fail the attempt.
	Setup(ctx context.Context, sc *tenant.SetupContext) error

	// Failed runs when the attempt accumulated errors.
	Failed(ctx context.Context, sc *tenant.SetupContext)

	// Succeeded runs after the tenant has been marked running.
	Succeeded(ctx context.Context)
}

// PoolCloser force-closes pooled data-store connections for a tenant.
// Needed for file-based single-file engines whose files stay OS-locked
// while a pooled connection is open.
type PoolCloser interface {
	CloseTenantPools(tenantName string) error
}
