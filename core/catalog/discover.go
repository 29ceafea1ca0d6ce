package catalog

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/artpar/shellhost/domain/extension"
)

// Discover lists the subdirectories of the configured extension roots
// as candidate descriptors. A missing root contributes no candidates.
// Candidates are returned in deterministic (root, name) order.
func Discover(roots []string) []extension.Descriptor {
	var candidates []extension.Descriptor

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			candidates = append(candidates, extension.Descriptor{
				ID:      name,
				SubPath: filepath.Join(root, name),
				Exists:  true,
			})
		}
	}

	return candidates
}

// Describe builds a descriptor for one explicit extension path,
// stating whether the location exists. Used for well-known extensions
// that may not be installed.
func Describe(id, path string) extension.Descriptor {
	info, err := os.Stat(path)
	return extension.Descriptor{
		ID:      id,
		SubPath: path,
		Exists:  err == nil && info.IsDir(),
	}
}
