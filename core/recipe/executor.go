package recipe

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/recipe"
	"github.com/artpar/shellhost/domain/tenant"
	"github.com/artpar/shellhost/ports"
)

// StepContext is passed to a step handler.
type StepContext struct {
	// ExecutionID identifies the recipe execution the step belongs to.
	ExecutionID string

	// Step is the declarative step being executed.
	Step recipe.Step

	// Properties is the environment staged by the orchestrator
	// (admin identity, site name, ...).
	Properties map[string]string
}

// StepHandler executes one kind of declarative step.
type StepHandler func(ctx context.Context, sc StepContext) error

// Executor runs recipe steps in order through registered handlers.
type Executor struct {
	mu       sync.RWMutex
	handlers map[string]StepHandler
	logger   zerolog.Logger
}

// NewExecutor creates an executor with no handlers registered.
func NewExecutor(logger zerolog.Logger) *Executor {
	return &Executor{
		handlers: make(map[string]StepHandler),
		logger:   logger,
	}
}

// Register installs the handler for a step name. Last registration
// wins.
func (e *Executor) Register(stepName string, h StepHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[stepName] = h
}

// Execute runs the recipe's steps strictly in order. A step without a
// handler, a failing handler, or a cancellation surfaces as a
// *tenant.RecipeStepError naming the step.
func (e *Executor) Execute(ctx context.Context, executionID string, r recipe.Descriptor, properties map[string]string) error {
	for _, step := range r.Steps {
		if err := ctx.Err(); err != nil {
			return &tenant.RecipeStepError{
				StepName: step.Name,
				Messages: []string{fmt.Sprintf("execution cancelled: %v", err)},
			}
		}

		e.mu.RLock()
		handler, ok := e.handlers[step.Name]
		e.mu.RUnlock()
		if !ok {
			return &tenant.RecipeStepError{
				StepName: step.Name,
				Messages: []string{fmt.Sprintf("no handler registered for step %q", step.Name)},
			}
		}

		e.logger.Debug().
			Str("execution_id", executionID).
			Str("step", step.Name).
			Str("recipe", r.Name).
			Msg("executing recipe step")

		if err := e.run(ctx, handler, StepContext{
			ExecutionID: executionID,
			Step:        step,
			Properties:  properties,
		}); err != nil {
			if stepErr, ok := err.(*tenant.RecipeStepError); ok {
				return stepErr
			}
			return &tenant.RecipeStepError{
				StepName: step.Name,
				Messages: []string{err.Error()},
			}
		}
	}

	return nil
}

func (e *Executor) run(ctx context.Context, handler StepHandler, sc StepContext) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("step handler panicked: %v", r)
			}
		}()
		done <- handler(ctx, sc)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Mid-step cancellation is a step failure, same rollback path
		// as any other structured failure.
		return &tenant.RecipeStepError{
			StepName: sc.Step.Name,
			Messages: []string{fmt.Sprintf("execution cancelled: %v", ctx.Err())},
		}
	}
}

// Ensure interface compliance.
var _ ports.RecipeExecutor = (*Executor)(nil)
