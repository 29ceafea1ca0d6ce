package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/extension"
	"github.com/artpar/shellhost/ports"
)

// Manager owns the process-wide catalog. The build runs synchronously
// inside NewManager, so the cost is paid during service composition
// rather than on the first inbound request. The once barrier keeps a
// second concurrent trigger blocked until the in-flight build
// finishes instead of running the build twice.
type Manager struct {
	builder *Builder
	roots   []string
	logger  zerolog.Logger

	once    sync.Once
	catalog *Catalog
	report  Report
}

// NewManager discovers candidates under roots and builds the catalog
// eagerly before returning.
func NewManager(resolver ports.FeatureResolver, roots []string, logger zerolog.Logger) *Manager {
	m := &Manager{
		builder: NewBuilder(resolver, logger),
		roots:   roots,
		logger:  logger,
	}
	m.ensure(context.Background())
	return m
}

func (m *Manager) ensure(ctx context.Context) {
	m.once.Do(func() {
		candidates := Discover(m.roots)
		m.catalog, m.report = m.builder.Build(ctx, candidates)
	})
}

// Catalog returns the immutable catalog snapshot.
func (m *Manager) Catalog() *Catalog {
	m.ensure(context.Background())
	return m.catalog
}

// Report returns the build report.
func (m *Manager) Report() Report {
	m.ensure(context.Background())
	return m.report
}

// Get returns the entry for an extension id.
func (m *Manager) Get(id string) (extension.Entry, bool) {
	return m.Catalog().Get(id)
}

// Features returns every feature contributed by any catalogued
// extension.
func (m *Manager) Features() []extension.FeatureInfo {
	return m.Catalog().Features()
}
