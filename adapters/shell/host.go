// Package shell provides the in-process shell host: it builds,
// caches, and reloads per-tenant contexts, and fans reload broadcasts
// out to listeners. Tenant settings persistence belongs to the
// hosting layer; this host keeps the authoritative in-memory copy.
package shell

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/adapters/sqlite"
	"github.com/artpar/shellhost/core/catalog"
	"github.com/artpar/shellhost/domain/extension"
	"github.com/artpar/shellhost/domain/tenant"
	"github.com/artpar/shellhost/ports"
)

// Host implements ports.ShellHost over per-tenant sqlite pools and the
// extension catalog.
type Host struct {
	catalog *catalog.Manager
	pools   *sqlite.Pools
	logger  zerolog.Logger

	mu        sync.RWMutex
	scopes    map[string]*Context
	settings  map[string]*tenant.Config
	listeners []func(tenantName string)
}

// NewHost creates a shell host.
func NewHost(cat *catalog.Manager, pools *sqlite.Pools, logger zerolog.Logger) *Host {
	return &Host{
		catalog:  cat,
		pools:    pools,
		logger:   logger,
		scopes:   make(map[string]*Context),
		settings: make(map[string]*tenant.Config),
	}
}

// OnReload registers a listener for reload broadcasts. Silent reloads
// (broadcast=false) never reach listeners.
func (h *Host) OnReload(fn func(tenantName string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// CreateDescribedContext builds a full tenant context scoped to the
// features named by the descriptor and caches it as the tenant's
// scope.
func (h *Host) CreateDescribedContext(ctx context.Context, settings *tenant.Config, desc tenant.FeatureDescriptor) (ports.ShellContext, error) {
	sc, err := h.build(ctx, settings, desc.Features, false)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.scopes[settings.Name] = sc
	h.mu.Unlock()
	return sc, nil
}

// CreateMinimumContext builds a minimal isolated context scoped to the
// given features, used solely to persist the initial feature descriptor
// during setup. It is never cached, so it cannot interact with a
// running tenant scope.
func (h *Host) CreateMinimumContext(ctx context.Context, settings *tenant.Config, features []string) (ports.ShellContext, error) {
	return h.build(ctx, settings, features, true)
}

// GetScope returns the cached context for a tenant.
func (h *Host) GetScope(tenantName string) (ports.ShellContext, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sc, ok := h.scopes[tenantName]
	if !ok {
		return nil, fmt.Errorf("no scope for tenant %q", tenantName)
	}
	return sc, nil
}

// ReloadContext rebuilds the tenant's cached scope from its persisted
// descriptor. The broadcast flag controls whether reload listeners
// are notified.
func (h *Host) ReloadContext(ctx context.Context, settings *tenant.Config, broadcast bool) error {
	var features []string
	if settings.DatabaseProvider == "sqlite" && settings.ConnectionString != "" {
		db, err := h.pools.Get(settings.Name, settings.ConnectionString)
		if err != nil {
			return fmt.Errorf("open tenant database: %w", err)
		}
		desc, err := sqlite.NewDescriptorStore(db, settings.TablePrefix).Latest(ctx)
		if err == nil {
			features = desc.Features
		}
	}

	sc, err := h.build(ctx, settings, features, false)
	if err != nil {
		return err
	}

	h.mu.Lock()
	old := h.scopes[settings.Name]
	h.scopes[settings.Name] = sc
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()

	if old != nil {
		old.Release()
	}

	h.logger.Debug().
		Str("tenant", settings.Name).
		Bool("broadcast", broadcast).
		Msg("tenant context reloaded")

	if broadcast {
		for _, fn := range listeners {
			fn(settings.Name)
		}
	}
	return nil
}

// UpdateSettings stores the tenant configuration.
func (h *Host) UpdateSettings(ctx context.Context, settings *tenant.Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings[settings.Name] = settings.Clone()
	return nil
}

// Settings returns the stored configuration for a tenant.
func (h *Host) Settings(tenantName string) (*tenant.Config, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.settings[tenantName]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// AllSettings returns the stored configuration of every tenant.
func (h *Host) AllSettings() []*tenant.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := make([]*tenant.Config, 0, len(h.settings))
	for _, s := range h.settings {
		all = append(all, s.Clone())
	}
	return all
}

func (h *Host) build(ctx context.Context, settings *tenant.Config, features []string, minimum bool) (*Context, error) {
	sc := &Context{
		settings: settings.Clone(),
		features: features,
		minimum:  minimum,
	}

	// Resolve the enabled features against the extension catalog.
	// Features whose extension is not installed stay enabled by id
	// only; a missing extension is a normal outcome.
	if h.catalog != nil {
		cat := h.catalog.Catalog()
		for _, id := range features {
			if info, ok := cat.Feature(id); ok {
				sc.resolved = append(sc.resolved, info)
			}
		}
	}

	if settings.DatabaseProvider == "sqlite" && settings.ConnectionString != "" {
		db, err := h.pools.Get(settings.Name, settings.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("open tenant database: %w", err)
		}
		sc.store = sqlite.NewDescriptorStore(db, settings.TablePrefix)
	}

	return sc, nil
}

// Context is one tenant's service scope.
type Context struct {
	settings *tenant.Config
	features []string
	resolved []extension.FeatureInfo
	store    *sqlite.DescriptorStore
	minimum  bool

	mu       sync.Mutex
	released bool
}

// Settings returns the tenant configuration the context was built for.
func (c *Context) Settings() *tenant.Config {
	return c.settings
}

// Features returns the feature ids the context is scoped to.
func (c *Context) Features() []string {
	return c.features
}

// ResolvedFeatures returns the catalog-backed feature infos for the
// enabled features whose extensions are installed.
func (c *Context) ResolvedFeatures() []extension.FeatureInfo {
	return c.resolved
}

// StoreDescriptor durably persists the tenant's feature descriptor and
// rescopes the context to the descriptor's features.
func (c *Context) StoreDescriptor(ctx context.Context, desc tenant.FeatureDescriptor) error {
	if c.store == nil {
		return fmt.Errorf("tenant %q has no durable store", c.settings.Name)
	}
	if err := c.store.Store(ctx, desc); err != nil {
		return err
	}
	c.features = desc.Features
	return nil
}

// Release disposes the context. The underlying pool is shared and
// stays open; setup closes it separately for file-backed providers.
func (c *Context) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	return nil
}

// Ensure interface compliance.
var (
	_ ports.ShellHost    = (*Host)(nil)
	_ ports.ShellContext = (*Context)(nil)
)
