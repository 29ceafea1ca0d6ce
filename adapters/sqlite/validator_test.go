package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/tenant"
)

func TestValidateClassification(t *testing.T) {
	v := NewValidator(zerolog.Nop())
	dbFile := filepath.Join(t.TempDir(), "tenant.db")

	tests := []struct {
		name string
		conn tenant.ConnectionInfo
		want tenant.ConnectionStatus
	}{
		{
			name: "no provider",
			conn: tenant.ConnectionInfo{},
			want: tenant.ConnectionNoProvider,
		},
		{
			name: "unsupported provider",
			conn: tenant.ConnectionInfo{Provider: "postgres", ConnectionString: "host=db"},
			want: tenant.ConnectionUnsupportedProvider,
		},
		{
			name: "missing connection string",
			conn: tenant.ConnectionInfo{Provider: "sqlite"},
			want: tenant.ConnectionInvalid,
		},
		{
			name: "fresh file",
			conn: tenant.ConnectionInfo{Provider: "sqlite", ConnectionString: dbFile},
			want: tenant.ConnectionOk,
		},
		{
			name: "unwritable location",
			conn: tenant.ConnectionInfo{Provider: "sqlite", ConnectionString: "/nonexistent/dir/tenant.db"},
			want: tenant.ConnectionInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Validate(context.Background(), tt.conn); got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateDetectsOccupiedSchema(t *testing.T) {
	v := NewValidator(zerolog.Nop())
	dbFile := filepath.Join(t.TempDir(), "tenant.db")
	conn := tenant.ConnectionInfo{
		Provider:         "sqlite",
		ConnectionString: dbFile,
		TablePrefix:      "alpha",
	}

	if got := v.Validate(context.Background(), conn); got != tenant.ConnectionOk {
		t.Fatalf("fresh database: Validate = %v, want Ok", got)
	}

	// Provision the schema the way setup does: the descriptor store's
	// first write creates the document table.
	db, err := Open(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := NewDescriptorStore(db, "alpha")
	err = store.Store(context.Background(), tenant.FeatureDescriptor{
		SerialNumber: 1,
		Features:     []string{"hosting"},
		Updated:      time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := v.Validate(context.Background(), conn); got != tenant.ConnectionDocumentTableFound {
		t.Errorf("occupied database: Validate = %v, want DocumentTableFound", got)
	}

	// A different prefix on the same file is still free.
	other := conn
	other.TablePrefix = "beta"
	if got := v.Validate(context.Background(), other); got != tenant.ConnectionOk {
		t.Errorf("other prefix: Validate = %v, want Ok", got)
	}
}

func TestDocumentTable(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "Document"},
		{"alpha", "alpha_Document"},
		{"alpha_", "alpha_Document"},
	}

	for _, tt := range tests {
		if got := DocumentTable(tt.prefix); got != tt.want {
			t.Errorf("DocumentTable(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestDescriptorStoreRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tenant.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := NewDescriptorStore(db, "")
	ctx := context.Background()

	for serial := 1; serial <= 3; serial++ {
		err := store.Store(ctx, tenant.FeatureDescriptor{
			SerialNumber: serial,
			Features:     []string{"hosting", "blog"},
			Updated:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Store #%d failed: %v", serial, err)
		}
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.SerialNumber != 3 {
		t.Errorf("SerialNumber = %d, want the most recent write", got.SerialNumber)
	}
	if len(got.Features) != 2 || got.Features[1] != "blog" {
		t.Errorf("Features = %v", got.Features)
	}
}

func TestPools(t *testing.T) {
	dir := t.TempDir()
	p := NewPools()
	defer p.Close()

	a, err := p.Get("alpha", filepath.Join(dir, "alpha.db"))
	if err != nil {
		t.Fatal(err)
	}
	again, err := p.Get("alpha", filepath.Join(dir, "alpha.db"))
	if err != nil {
		t.Fatal(err)
	}
	if a != again {
		t.Error("second Get opened a new pool")
	}

	if err := p.CloseTenantPools("alpha"); err != nil {
		t.Fatalf("CloseTenantPools failed: %v", err)
	}
	// Closing an unknown tenant is a no-op.
	if err := p.CloseTenantPools("ghost"); err != nil {
		t.Errorf("CloseTenantPools(ghost) = %v, want nil", err)
	}

	// After closing, a fresh pool is opened on demand.
	fresh, err := p.Get("alpha", filepath.Join(dir, "alpha.db"))
	if err != nil {
		t.Fatal(err)
	}
	if fresh == a {
		t.Error("Get returned the closed pool")
	}
}
