// Package feature provides the default feature resolver.
package feature

import (
	"github.com/artpar/shellhost/domain/extension"
	"github.com/artpar/shellhost/ports"
)

// Resolver enumerates the features an extension contributes from its
// manifest. An extension that declares no feature blocks contributes
// one implicit feature whose id is the extension id.
type Resolver struct{}

// NewResolver creates the default resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// GetFeatures returns the features contributed by one extension.
func (r *Resolver) GetFeatures(ext extension.Descriptor, m extension.ManifestInfo) []extension.FeatureInfo {
	if len(m.Features) == 0 {
		return []extension.FeatureInfo{{
			ID:           ext.ID,
			Name:         displayName(m),
			Description:  m.Description,
			Dependencies: m.Dependencies,
			Extension:    ext.ID,
		}}
	}

	features := make([]extension.FeatureInfo, 0, len(m.Features))
	for _, def := range m.Features {
		name := def.Name
		if name == "" {
			name = def.ID
		}
		features = append(features, extension.FeatureInfo{
			ID:           def.ID,
			Name:         name,
			Description:  def.Description,
			Category:     def.Category,
			Priority:     def.Priority,
			Dependencies: def.Dependencies,
			Extension:    ext.ID,
		})
	}
	return features
}

func displayName(m extension.ManifestInfo) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Ensure interface compliance.
var _ ports.FeatureResolver = (*Resolver)(nil)
