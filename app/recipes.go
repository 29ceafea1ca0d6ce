package app

import (
	"context"
	"sync"

	"github.com/artpar/shellhost/domain/recipe"
)

// recipeCache holds the one-time harvested setup recipe list. Same
// eager/idempotent discipline as the extension catalog: harvested once
// during service construction, cached for process lifetime, racing
// callers block on the in-flight harvest.
type recipeCache struct {
	once sync.Once
	list []recipe.Descriptor
}

// ensureRecipes harvests recipe descriptors from every harvester
// exactly once, keeping those flagged as setup recipes. The harvest
// runs under the given context; construction passes a background
// context so a caller's cancellation can never empty the cache.
func (s *SetupService) ensureRecipes(ctx context.Context) {
	s.recipes.once.Do(func() {
		var setup []recipe.Descriptor
		for _, h := range s.deps.Harvesters {
			descriptors, err := h.Harvest(ctx)
			if err != nil {
				s.deps.Logger.Warn().Err(err).Msg("recipe harvester failed")
				continue
			}
			for _, d := range descriptors {
				if d.IsSetupRecipe {
					setup = append(setup, d)
				}
			}
		}
		s.recipes.list = setup
	})
}

// ListSetupRecipes returns the setup recipes harvested at construction.
func (s *SetupService) ListSetupRecipes(ctx context.Context) []recipe.Descriptor {
	s.ensureRecipes(ctx)
	return s.recipes.list
}

// FindSetupRecipe returns the cached setup recipe with the given name.
func (s *SetupService) FindSetupRecipe(ctx context.Context, name string) (recipe.Descriptor, bool) {
	for _, d := range s.ListSetupRecipes(ctx) {
		if d.Name == name {
			return d, true
		}
	}
	return recipe.Descriptor{}, false
}
