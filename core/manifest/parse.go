// Package manifest parses and validates extension manifests.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/shellhost/domain/extension"
)

// FileNames are the recognized manifest file names, in lookup order.
var FileNames = []string{"manifest.yaml", "manifest.yml"}

// ParseFile parses a manifest from a YAML file.
func ParseFile(path string) (extension.ManifestInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extension.ManifestInfo{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a manifest from YAML bytes.
func Parse(data []byte) (extension.ManifestInfo, error) {
	var m extension.ManifestInfo
	if err := yaml.Unmarshal(data, &m); err != nil {
		return extension.ManifestInfo{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(m); err != nil {
		return extension.ManifestInfo{}, fmt.Errorf("validate manifest %q: %w", m.Name, err)
	}

	return m, nil
}

// ParseDir parses the manifest inside an extension directory. A
// directory without any recognized manifest file returns an error
// wrapping os.ErrNotExist so callers can distinguish "not an
// extension" from a malformed manifest.
func ParseDir(dir string) (extension.ManifestInfo, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return ParseFile(path)
	}

	return extension.ManifestInfo{}, fmt.Errorf("no manifest in %s: %w", dir, os.ErrNotExist)
}

// Validate validates a parsed manifest.
func Validate(m extension.ManifestInfo) error {
	var errs []string

	if m.Name == "" {
		errs = append(errs, "manifest name is required")
	} else if !isValidIdentifier(m.Name) {
		errs = append(errs, fmt.Sprintf("manifest name %q is not a valid identifier", m.Name))
	}

	seen := make(map[string]bool, len(m.Features))
	for _, f := range m.Features {
		if f.ID == "" {
			errs = append(errs, "feature id is required")
			continue
		}
		if !isValidIdentifier(f.ID) {
			errs = append(errs, fmt.Sprintf("feature id %q is not a valid identifier", f.ID))
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Sprintf("feature id %q declared more than once", f.ID))
		}
		seen[f.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// isValidIdentifier checks whether s is a valid extension or feature
// identifier. Dots and hyphens are allowed after the first character
// so that conventional ids like "search.indexing" work.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' && c != '.' && c != '-' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
