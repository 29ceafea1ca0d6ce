// Package catalog discovers candidate extensions, parses their
// manifests in parallel, and publishes an immutable name→entry map.
// The catalog is built exactly once per process, eagerly, during
// construction of its owning manager; all reads after that are
// lock-free snapshot reads.
package catalog

import (
	"sort"

	"github.com/artpar/shellhost/domain/extension"
)

// Catalog is the immutable result of one build: a read-only mapping
// from extension id to entry. Absence of an entry for a known id is a
// normal outcome (extension missing on disk), not an error.
type Catalog struct {
	entries map[string]extension.Entry
}

// Get returns the entry for an extension id.
func (c *Catalog) Get(id string) (extension.Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns the sorted extension ids.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries, ordered by extension id.
func (c *Catalog) Entries() []extension.Entry {
	entries := make([]extension.Entry, 0, len(c.entries))
	for _, name := range c.Names() {
		entries = append(entries, c.entries[name])
	}
	return entries
}

// Features returns every feature contributed by any catalogued
// extension, ordered by extension id then declaration order.
func (c *Catalog) Features() []extension.FeatureInfo {
	var features []extension.FeatureInfo
	for _, e := range c.Entries() {
		features = append(features, e.Features...)
	}
	return features
}

// Feature returns one feature by id.
func (c *Catalog) Feature(id string) (extension.FeatureInfo, bool) {
	for _, e := range c.entries {
		for _, f := range e.Features {
			if f.ID == id {
				return f, true
			}
		}
	}
	return extension.FeatureInfo{}, false
}
