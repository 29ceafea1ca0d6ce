package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/recipe"
	"github.com/artpar/shellhost/domain/tenant"
)

func newRecipe(steps ...string) recipe.Descriptor {
	r := recipe.Descriptor{Name: "test"}
	for _, name := range steps {
		r.Steps = append(r.Steps, recipe.Step{Name: name})
	}
	return r
}

func TestExecuteRunsStepsInOrder(t *testing.T) {
	e := NewExecutor(zerolog.Nop())

	var order []string
	for _, name := range []string{"one", "two", "three"} {
		name := name
		e.Register(name, func(ctx context.Context, sc StepContext) error {
			order = append(order, name)
			return nil
		})
	}

	err := e.Execute(context.Background(), "exec-1", newRecipe("one", "two", "three"), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.Join(order, ",") != "one,two,three" {
		t.Errorf("order = %v", order)
	}
}

func TestExecutePassesContext(t *testing.T) {
	e := NewExecutor(zerolog.Nop())

	var got StepContext
	e.Register("settings", func(ctx context.Context, sc StepContext) error {
		got = sc
		return nil
	})

	r := recipe.Descriptor{Name: "test", Steps: []recipe.Step{
		{Name: "settings", Parameters: map[string]any{"SiteName": "Alpha"}},
	}}
	props := map[string]string{"AdminUserId": "u-1"}

	if err := e.Execute(context.Background(), "exec-7", r, props); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got.ExecutionID != "exec-7" {
		t.Errorf("ExecutionID = %q, want %q", got.ExecutionID, "exec-7")
	}
	if got.Step.Parameters["SiteName"] != "Alpha" {
		t.Errorf("Parameters = %v", got.Step.Parameters)
	}
	if got.Properties["AdminUserId"] != "u-1" {
		t.Errorf("Properties = %v", got.Properties)
	}
}

func TestExecuteUnknownStep(t *testing.T) {
	e := NewExecutor(zerolog.Nop())

	err := e.Execute(context.Background(), "exec-1", newRecipe("mystery"), nil)

	var stepErr *tenant.RecipeStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
	}
	if stepErr.StepName != "mystery" {
		t.Errorf("StepName = %q, want %q", stepErr.StepName, "mystery")
	}
}

func TestExecuteHandlerErrorNamesStep(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	e.Register("ok", func(ctx context.Context, sc StepContext) error { return nil })
	e.Register("boom", func(ctx context.Context, sc StepContext) error {
		return errors.New("parameter missing")
	})

	var after bool
	e.Register("after", func(ctx context.Context, sc StepContext) error {
		after = true
		return nil
	})

	err := e.Execute(context.Background(), "exec-1", newRecipe("ok", "boom", "after"), nil)

	var stepErr *tenant.RecipeStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
	}
	if stepErr.StepName != "boom" {
		t.Errorf("StepName = %q, want %q", stepErr.StepName, "boom")
	}
	if len(stepErr.Messages) != 1 || !strings.Contains(stepErr.Messages[0], "parameter missing") {
		t.Errorf("Messages = %v", stepErr.Messages)
	}
	if after {
		t.Error("steps after a failure still ran")
	}
}

func TestExecuteHandlerStepError(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	want := &tenant.RecipeStepError{StepName: "feature", Messages: []string{"unknown feature"}}
	e.Register("feature", func(ctx context.Context, sc StepContext) error { return want })

	err := e.Execute(context.Background(), "exec-1", newRecipe("feature"), nil)

	var stepErr *tenant.RecipeStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
	}
	if stepErr != want {
		t.Error("handler-produced step error was rewrapped")
	}
}

func TestExecuteCancelledBeforeStep(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	e.Register("never", func(ctx context.Context, sc StepContext) error {
		t.Error("handler ran despite cancelled context")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, "exec-1", newRecipe("never"), nil)

	var stepErr *tenant.RecipeStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
	}
	if !strings.Contains(stepErr.Messages[0], "cancelled") {
		t.Errorf("Messages = %v", stepErr.Messages)
	}
}

func TestExecuteCancelledMidStep(t *testing.T) {
	e := NewExecutor(zerolog.Nop())

	release := make(chan struct{})
	e.Register("slow", func(ctx context.Context, sc StepContext) error {
		<-release
		return nil
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Execute(ctx, "exec-1", newRecipe("slow"), nil)
	}()
	cancel()

	select {
	case err := <-errCh:
		var stepErr *tenant.RecipeStepError
		if !errors.As(err, &stepErr) {
			t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
		}
		if stepErr.StepName != "slow" {
			t.Errorf("StepName = %q, want %q", stepErr.StepName, "slow")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestExecutePanickingHandler(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	e.Register("explode", func(ctx context.Context, sc StepContext) error {
		panic("nil map write")
	})

	err := e.Execute(context.Background(), "exec-1", newRecipe("explode"), nil)

	var stepErr *tenant.RecipeStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want *tenant.RecipeStepError", err)
	}
	if stepErr.StepName != "explode" {
		t.Errorf("StepName = %q, want %q", stepErr.StepName, "explode")
	}
	if !strings.Contains(stepErr.Messages[0], "panicked") {
		t.Errorf("Messages = %v", stepErr.Messages)
	}
}

func TestExecuteEmptyRecipe(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	if err := e.Execute(context.Background(), "exec-1", recipe.Descriptor{Name: "empty"}, nil); err != nil {
		t.Errorf("Execute failed: %v", err)
	}
}

func TestRegisterLastWins(t *testing.T) {
	e := NewExecutor(zerolog.Nop())
	e.Register("step", func(ctx context.Context, sc StepContext) error {
		return errors.New("old handler")
	})
	e.Register("step", func(ctx context.Context, sc StepContext) error { return nil })

	if err := e.Execute(context.Background(), "exec-1", newRecipe("step"), nil); err != nil {
		t.Errorf("Execute failed: %v", err)
	}
}
