package shell

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/adapters/sqlite"
	"github.com/artpar/shellhost/core/catalog"
	"github.com/artpar/shellhost/core/feature"
	"github.com/artpar/shellhost/domain/tenant"
)

func newTestHost(t *testing.T) (*Host, *tenant.Config) {
	t.Helper()

	extRoot := t.TempDir()
	dir := filepath.Join(extRoot, "blog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "name: blog\nfeatures:\n  - id: blog.posts\n"
	if err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := catalog.NewManager(feature.NewResolver(), []string{extRoot}, zerolog.Nop())
	pools := sqlite.NewPools()
	t.Cleanup(func() { pools.Close() })

	settings := &tenant.Config{
		Name:             "alpha",
		DatabaseProvider: "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "alpha.db"),
		TablePrefix:      "alpha",
	}

	return NewHost(cat, pools, zerolog.Nop()), settings
}

func TestMinimumContextIsNotCached(t *testing.T) {
	h, settings := newTestHost(t)

	minCtx, err := h.CreateMinimumContext(context.Background(), settings, []string{"blog.posts"})
	if err != nil {
		t.Fatalf("CreateMinimumContext failed: %v", err)
	}
	defer minCtx.Release()

	if _, err := h.GetScope("alpha"); err == nil {
		t.Error("minimum context leaked into the scope cache")
	}

	// Feature-scoped from construction, before any descriptor write.
	if got := minCtx.Features(); len(got) != 1 || got[0] != "blog.posts" {
		t.Errorf("Features = %v, want the requested scope", got)
	}
	resolved := minCtx.(*Context).ResolvedFeatures()
	if len(resolved) != 1 || resolved[0].Extension != "blog" {
		t.Errorf("resolved features = %+v, want blog.posts resolved from the catalog", resolved)
	}
}

func TestDescribedContextIsCached(t *testing.T) {
	h, settings := newTestHost(t)

	desc := tenant.FeatureDescriptor{SerialNumber: 1, Features: []string{"blog.posts"}}
	sc, err := h.CreateDescribedContext(context.Background(), settings, desc)
	if err != nil {
		t.Fatalf("CreateDescribedContext failed: %v", err)
	}

	got, err := h.GetScope("alpha")
	if err != nil {
		t.Fatalf("GetScope failed: %v", err)
	}
	if got != sc {
		t.Error("GetScope returned a different context")
	}

	resolved := sc.(*Context).ResolvedFeatures()
	if len(resolved) != 1 || resolved[0].ID != "blog.posts" {
		t.Errorf("resolved features = %+v, want blog.posts from the catalog", resolved)
	}
}

func TestStoreDescriptorRescopes(t *testing.T) {
	h, settings := newTestHost(t)

	sc, err := h.CreateMinimumContext(context.Background(), settings, []string{"hosting"})
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Release()

	desc := tenant.FeatureDescriptor{
		SerialNumber: 1,
		Features:     []string{"hosting", "blog.posts"},
		Updated:      time.Now(),
	}
	if err := sc.StoreDescriptor(context.Background(), desc); err != nil {
		t.Fatalf("StoreDescriptor failed: %v", err)
	}

	if got := sc.Features(); len(got) != 2 || got[1] != "blog.posts" {
		t.Errorf("Features = %v, want descriptor features", got)
	}
}

func TestReloadContextBroadcast(t *testing.T) {
	h, settings := newTestHost(t)

	var notified []string
	h.OnReload(func(name string) { notified = append(notified, name) })

	// A silent reload must not reach listeners.
	if err := h.ReloadContext(context.Background(), settings, false); err != nil {
		t.Fatalf("silent ReloadContext failed: %v", err)
	}
	if len(notified) != 0 {
		t.Errorf("silent reload notified listeners: %v", notified)
	}

	if err := h.ReloadContext(context.Background(), settings, true); err != nil {
		t.Fatalf("broadcast ReloadContext failed: %v", err)
	}
	if len(notified) != 1 || notified[0] != "alpha" {
		t.Errorf("notified = %v, want [alpha]", notified)
	}
}

func TestReloadContextPicksUpStoredDescriptor(t *testing.T) {
	h, settings := newTestHost(t)

	minCtx, err := h.CreateMinimumContext(context.Background(), settings, []string{"blog.posts"})
	if err != nil {
		t.Fatal(err)
	}
	desc := tenant.FeatureDescriptor{
		SerialNumber: 1,
		Features:     []string{"blog.posts"},
		Updated:      time.Now(),
	}
	if err := minCtx.StoreDescriptor(context.Background(), desc); err != nil {
		t.Fatal(err)
	}
	minCtx.Release()

	if err := h.ReloadContext(context.Background(), settings, false); err != nil {
		t.Fatalf("ReloadContext failed: %v", err)
	}

	sc, err := h.GetScope("alpha")
	if err != nil {
		t.Fatalf("GetScope failed: %v", err)
	}
	if got := sc.Features(); len(got) != 1 || got[0] != "blog.posts" {
		t.Errorf("Features = %v, want the persisted descriptor features", got)
	}
}

func TestUpdateSettingsClones(t *testing.T) {
	h, settings := newTestHost(t)

	if err := h.UpdateSettings(context.Background(), settings); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	// Mutating the caller's copy must not affect the stored one.
	settings.State = tenant.Disabled

	stored, ok := h.Settings("alpha")
	if !ok {
		t.Fatal("Settings(alpha) not found")
	}
	if stored.State == tenant.Disabled {
		t.Error("stored settings aliased the caller's struct")
	}

	all := h.AllSettings()
	if len(all) != 1 || all[0].Name != "alpha" {
		t.Errorf("AllSettings = %+v", all)
	}
}
