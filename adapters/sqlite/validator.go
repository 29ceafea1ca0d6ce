package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/tenant"
	"github.com/artpar/shellhost/ports"
)

// Validator classifies a proposed data-store connection. It is the
// primary guard preventing tenant creation on an already-occupied or
// broken schema.
type Validator struct {
	logger zerolog.Logger
}

// NewValidator creates a connection validator.
func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate opens the proposed connection and classifies the outcome.
func (v *Validator) Validate(ctx context.Context, conn tenant.ConnectionInfo) tenant.ConnectionStatus {
	if conn.Provider == "" {
		return tenant.ConnectionNoProvider
	}
	if conn.Provider != "sqlite" {
		return tenant.ConnectionUnsupportedProvider
	}
	if conn.ConnectionString == "" {
		return tenant.ConnectionInvalid
	}

	db, err := sql.Open("sqlite3", conn.ConnectionString+"?_busy_timeout=5000")
	if err != nil {
		return classify(err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		v.logger.Debug().Err(err).Str("provider", conn.Provider).Msg("connection ping failed")
		return classify(err)
	}

	// An existing document table for this prefix means another tenant
	// already occupies the schema.
	table := DocumentTable(conn.TablePrefix)
	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&name)
	switch {
	case err == nil:
		return tenant.ConnectionDocumentTableFound
	case err == sql.ErrNoRows:
		return tenant.ConnectionOk
	default:
		v.logger.Debug().Err(err).Str("table", table).Msg("document table probe failed")
		return classify(err)
	}
}

// classify maps a driver error to a connection status. Certificate
// failures only arise for network-backed providers but are classified
// here so callers see a single mapping.
func classify(err error) tenant.ConnectionStatus {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "x509") || strings.Contains(msg, "certificate") {
		return tenant.ConnectionInvalidCertificate
	}
	return tenant.ConnectionInvalid
}

// DocumentTable returns the document table name for a table prefix.
func DocumentTable(prefix string) string {
	if prefix == "" {
		return "Document"
	}
	return strings.TrimSuffix(prefix, "_") + "_Document"
}

// Ensure interface compliance.
var _ ports.ConnectionValidator = (*Validator)(nil)
