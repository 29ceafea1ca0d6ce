package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/core/feature"
)

func TestManagerBuildsEagerly(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "blog", "name: blog\n")
	writeExtension(t, root, "search", "name: search\n")

	m := NewManager(feature.NewResolver(), []string{root}, zerolog.Nop())

	// The catalog was built during construction; rename the root so a
	// lazy build would come up empty.
	if err := os.Rename(root, root+".moved"); err != nil {
		t.Fatal(err)
	}

	if got := m.Catalog().Len(); got != 2 {
		t.Errorf("Len = %d, want 2 (built before rename)", got)
	}
	if got := m.Report().Entries; got != 2 {
		t.Errorf("Report.Entries = %d, want 2", got)
	}
}

func TestManagerSnapshotStable(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "blog", "name: blog\n")

	m := NewManager(feature.NewResolver(), []string{root}, zerolog.Nop())
	first := m.Catalog()

	// Adding an extension after the build must not change the snapshot.
	writeExtension(t, root, "late", "name: late\n")

	if m.Catalog() != first {
		t.Error("catalog snapshot changed between reads")
	}
	if _, ok := m.Get("late"); ok {
		t.Error("extension added after the build appeared in the catalog")
	}
}

func TestManagerConcurrentReads(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "blog", "name: blog\nfeatures:\n  - id: blog.posts\n")

	m := NewManager(feature.NewResolver(), []string{root}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Get("blog"); !ok {
				t.Error("Get(blog) not found")
			}
			if len(m.Features()) != 1 {
				t.Error("Features() lost entries under concurrency")
			}
		}()
	}
	wg.Wait()
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := os.MkdirAll(filepath.Join(root, id), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// A plain file must not become a candidate.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got := Discover([]string{root})
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if got[i].ID != want {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i].ID, want)
		}
		if !got[i].Exists {
			t.Errorf("candidate %q reported missing", got[i].ID)
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	if got := Discover([]string{"/nonexistent/extensions"}); len(got) != 0 {
		t.Errorf("candidates = %d, want 0 for missing root", len(got))
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()

	if d := Describe("here", dir); !d.Exists {
		t.Error("existing directory reported missing")
	}
	if d := Describe("gone", filepath.Join(dir, "gone")); d.Exists {
		t.Error("missing directory reported present")
	}
}
