package catalog

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/core/manifest"
	"github.com/artpar/shellhost/domain/extension"
	"github.com/artpar/shellhost/ports"
)

// Report summarizes one catalog build.
type Report struct {
	// Entries is the number of extensions catalogued.
	Entries int

	// SkippedMissing counts candidates whose physical location was
	// absent. Not an error: optional extensions are expected to be
	// missing.
	SkippedMissing int

	// Malformed counts candidates whose manifest failed to parse.
	// Each one is logged and skipped; a partial catalog is valid.
	Malformed int
}

// Builder turns candidate descriptors into a catalog. Candidates are
// partitioned into contiguous chunks sized to hardware parallelism;
// each worker runs a plain sequential loop over its chunk, which
// amortizes per-item dispatch cost.
type Builder struct {
	resolver ports.FeatureResolver
	logger   zerolog.Logger

	// workers overrides the partition count; 0 means GOMAXPROCS.
	workers int
}

// NewBuilder creates a builder using the given feature resolver.
func NewBuilder(resolver ports.FeatureResolver, logger zerolog.Logger) *Builder {
	return &Builder{resolver: resolver, logger: logger}
}

// Build processes all candidates and returns the immutable catalog.
// One malformed extension never aborts the build.
func (b *Builder) Build(ctx context.Context, candidates []extension.Descriptor) (*Catalog, Report) {
	workers := b.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		entries        sync.Map
		skippedMissing atomic.Int64
		malformed      atomic.Int64
	)

	chunk := (len(candidates) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(candidates); start += chunk {
		end := start + chunk
		if end > len(candidates) {
			end = len(candidates)
		}

		wg.Add(1)
		go func(part []extension.Descriptor) {
			defer wg.Done()
			for _, cand := range part {
				if ctx.Err() != nil {
					return
				}

				entry, ok := b.process(cand, &skippedMissing, &malformed)
				if !ok {
					continue
				}

				// First writer wins; a racing duplicate id loses
				// silently rather than corrupting the map.
				entries.LoadOrStore(cand.ID, entry)
			}
		}(candidates[start:end])
	}
	wg.Wait()

	snapshot := make(map[string]extension.Entry)
	entries.Range(func(k, v any) bool {
		snapshot[k.(string)] = v.(extension.Entry)
		return true
	})

	report := Report{
		Entries:        len(snapshot),
		SkippedMissing: int(skippedMissing.Load()),
		Malformed:      int(malformed.Load()),
	}

	b.logger.Info().
		Int("entries", report.Entries).
		Int("skipped_missing", report.SkippedMissing).
		Int("malformed", report.Malformed).
		Int("workers", workers).
		Msg("extension catalog built")

	return &Catalog{entries: snapshot}, report
}

func (b *Builder) process(cand extension.Descriptor, skippedMissing, malformed *atomic.Int64) (extension.Entry, bool) {
	if !cand.Exists {
		skippedMissing.Add(1)
		return extension.Entry{}, false
	}

	m, err := manifest.ParseDir(cand.SubPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Directory present but carrying no manifest: not an
			// extension, skip silently.
			skippedMissing.Add(1)
			return extension.Entry{}, false
		}
		malformed.Add(1)
		b.logger.Warn().Err(err).Str("extension", cand.ID).Msg("skipping extension with malformed manifest")
		return extension.Entry{}, false
	}

	return extension.Entry{
		Descriptor: cand,
		Manifest:   m,
		Features:   b.resolver.GetFeatures(cand, m),
	}, true
}
