package feature

import (
	"testing"

	"github.com/artpar/shellhost/domain/extension"
)

func TestGetFeaturesDeclared(t *testing.T) {
	r := NewResolver()
	ext := extension.Descriptor{ID: "search"}
	m := extension.ManifestInfo{
		Name: "search",
		Features: []extension.FeatureDefinition{
			{ID: "search.indexing", Name: "Indexing", Category: "content", Priority: 10},
			{ID: "search.query"},
		},
	}

	got := r.GetFeatures(ext, m)
	if len(got) != 2 {
		t.Fatalf("features = %d, want 2", len(got))
	}

	if got[0].ID != "search.indexing" || got[0].Name != "Indexing" || got[0].Extension != "search" {
		t.Errorf("feature[0] = %+v", got[0])
	}

	// A declared feature without a name falls back to its id.
	if got[1].Name != "search.query" {
		t.Errorf("feature[1].Name = %q, want %q", got[1].Name, "search.query")
	}
}

func TestGetFeaturesImplicit(t *testing.T) {
	r := NewResolver()
	ext := extension.Descriptor{ID: "blog"}
	m := extension.ManifestInfo{
		Name:         "blog",
		DisplayName:  "Blog",
		Dependencies: []string{"search"},
	}

	got := r.GetFeatures(ext, m)
	if len(got) != 1 {
		t.Fatalf("features = %d, want 1 implicit feature", len(got))
	}
	f := got[0]
	if f.ID != "blog" || f.Name != "Blog" || f.Extension != "blog" {
		t.Errorf("implicit feature = %+v", f)
	}
	if len(f.Dependencies) != 1 || f.Dependencies[0] != "search" {
		t.Errorf("Dependencies = %v, want manifest dependencies", f.Dependencies)
	}
}

func TestGetFeaturesImplicitNameFallback(t *testing.T) {
	r := NewResolver()
	got := r.GetFeatures(extension.Descriptor{ID: "blog"}, extension.ManifestInfo{Name: "blog"})
	if len(got) != 1 || got[0].Name != "blog" {
		t.Errorf("features = %+v, want implicit feature named after manifest", got)
	}
}
