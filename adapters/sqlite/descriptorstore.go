package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/shellhost/domain/tenant"
)

// DescriptorStore persists feature descriptors into a tenant's
// document table. The first write during setup also creates the
// table, which is what the connection validator later detects as an
// occupied schema.
type DescriptorStore struct {
	db     *DB
	prefix string
}

// NewDescriptorStore creates a store over an open tenant database.
func NewDescriptorStore(db *DB, tablePrefix string) *DescriptorStore {
	return &DescriptorStore{db: db, prefix: tablePrefix}
}

type descriptorDocument struct {
	SerialNumber int      `json:"serial_number"`
	Features     []string `json:"features"`
	Updated      string   `json:"updated"`
}

// Store writes one feature descriptor.
func (s *DescriptorStore) Store(ctx context.Context, desc tenant.FeatureDescriptor) error {
	table := DocumentTable(s.prefix)

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			content TEXT NOT NULL
		)
	`, table))
	if err != nil {
		return fmt.Errorf("create document table: %w", err)
	}

	content, err := json.Marshal(descriptorDocument{
		SerialNumber: desc.SerialNumber,
		Features:     desc.Features,
		Updated:      desc.Updated.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %q (type, content) VALUES (?, ?)", table),
		"feature_descriptor", string(content))
	if err != nil {
		return fmt.Errorf("insert descriptor: %w", err)
	}
	return nil
}

// Latest reads the most recently written feature descriptor.
func (s *DescriptorStore) Latest(ctx context.Context) (tenant.FeatureDescriptor, error) {
	table := DocumentTable(s.prefix)

	var content string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT content FROM %q WHERE type = ? ORDER BY id DESC LIMIT 1", table),
		"feature_descriptor").Scan(&content)
	if err != nil {
		return tenant.FeatureDescriptor{}, fmt.Errorf("query descriptor: %w", err)
	}

	var doc descriptorDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return tenant.FeatureDescriptor{}, fmt.Errorf("unmarshal descriptor: %w", err)
	}

	return tenant.FeatureDescriptor{
		SerialNumber: doc.SerialNumber,
		Features:     doc.Features,
	}, nil
}
