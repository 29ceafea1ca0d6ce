// Package extension defines the data model for installable extensions.
// An extension is a unit of code that contributes one or more features
// to a tenant. Extensions are discovered on disk, described by a YAML
// manifest, and collected into an immutable catalog at startup.
package extension

// Descriptor identifies one candidate extension location on disk.
// It is created during discovery and never mutated afterwards.
type Descriptor struct {
	// ID is the extension identifier, by convention the directory name.
	ID string

	// SubPath is the extension directory path as discovered, rooted at
	// the configured extension root (e.g. "extensions/search").
	SubPath string

	// Exists reports whether the physical location was present at
	// discovery time. Missing locations are a normal outcome for
	// optional or uninstalled extensions.
	Exists bool
}

// ManifestInfo is the parsed metadata for one extension.
// Immutable once produced by the manifest parser.
type ManifestInfo struct {
	Name         string              `yaml:"name"`
	DisplayName  string              `yaml:"display_name,omitempty"`
	Version      string              `yaml:"version,omitempty"`
	Description  string              `yaml:"description,omitempty"`
	Author       string              `yaml:"author,omitempty"`
	Website      string              `yaml:"website,omitempty"`
	Tags         []string            `yaml:"tags,omitempty"`
	Dependencies []string            `yaml:"dependencies,omitempty"`
	Features     []FeatureDefinition `yaml:"features,omitempty"`
}

// FeatureDefinition is one feature block as declared in a manifest.
type FeatureDefinition struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Category     string   `yaml:"category,omitempty"`
	Priority     int      `yaml:"priority,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// FeatureInfo is one unit of functionality contributed by an extension,
// produced by the feature resolver from (Descriptor, ManifestInfo).
type FeatureInfo struct {
	ID           string
	Name         string
	Description  string
	Category     string
	Priority     int
	Dependencies []string

	// Extension is the id of the contributing extension.
	Extension string
}

// Entry composes everything known about one successfully parsed
// extension. Entries are owned by the catalog once inserted and are
// never mutated after insertion.
type Entry struct {
	Descriptor Descriptor
	Manifest   ManifestInfo
	Features   []FeatureInfo
}
