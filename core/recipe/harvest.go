// Package recipe harvests recipe descriptors and executes recipe
// steps against a tenant.
package recipe

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/artpar/shellhost/domain/recipe"
	"github.com/artpar/shellhost/ports"
)

// Suffix marks recipe files within a recipe root.
const Suffix = ".recipe.yaml"

// FileHarvester discovers recipes by walking configured roots for
// *.recipe.yaml files.
type FileHarvester struct {
	roots  []string
	logger zerolog.Logger
}

// NewFileHarvester creates a harvester over the given roots.
func NewFileHarvester(roots []string, logger zerolog.Logger) *FileHarvester {
	return &FileHarvester{roots: roots, logger: logger}
}

// Harvest parses every recipe file under the roots. A missing root
// contributes nothing; a malformed recipe is logged and skipped.
func (h *FileHarvester) Harvest(ctx context.Context) ([]recipe.Descriptor, error) {
	var descriptors []recipe.Descriptor

	for _, root := range h.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), Suffix) {
				return nil
			}

			desc, err := ParseFile(path)
			if err != nil {
				h.logger.Warn().Err(err).Str("path", path).Msg("skipping malformed recipe")
				return nil
			}
			descriptors = append(descriptors, desc)
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("walk recipe root %s: %w", root, err)
		}
	}

	return descriptors, nil
}

// ParseFile parses one recipe file.
func ParseFile(path string) (recipe.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recipe.Descriptor{}, fmt.Errorf("read file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a recipe descriptor from YAML bytes.
func Parse(data []byte) (recipe.Descriptor, error) {
	var desc recipe.Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return recipe.Descriptor{}, fmt.Errorf("parse yaml: %w", err)
	}
	if desc.Name == "" {
		return recipe.Descriptor{}, fmt.Errorf("recipe name is required")
	}
	return desc, nil
}

// Ensure interface compliance.
var _ ports.RecipeHarvester = (*FileHarvester)(nil)
