// Package sqlite provides the SQLite implementations of the storage
// ports: per-tenant connection pools, the connection validator, and
// the feature-descriptor store.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/shellhost/ports"
)

// DB wraps a SQLite database connection pool.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite database connection.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return &DB{DB: db}, nil
}

// Pools tracks one connection pool per tenant. A pool held open keeps
// an OS-level lock on the underlying database file, so setup closes
// the tenant's pools once provisioning is done.
type Pools struct {
	mu    sync.Mutex
	pools map[string]*DB
}

// NewPools creates an empty pool registry.
func NewPools() *Pools {
	return &Pools{pools: make(map[string]*DB)}
}

// Get returns the pool for a tenant, opening it on first use.
func (p *Pools) Get(tenantName, path string) (*DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.pools[tenantName]; ok {
		return db, nil
	}

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	p.pools[tenantName] = db
	return db, nil
}

// CloseTenantPools force-closes the pooled connections for a tenant so
// the database file can later be moved or deleted.
func (p *Pools) CloseTenantPools(tenantName string) error {
	p.mu.Lock()
	db, ok := p.pools[tenantName]
	delete(p.pools, tenantName)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return db.Close()
}

// Close closes every pool.
func (p *Pools) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, db := range p.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.pools, name)
	}
	return firstErr
}

// Ensure interface compliance.
var _ ports.PoolCloser = (*Pools)(nil)
