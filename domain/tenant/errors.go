package tenant

import (
	"fmt"
	"strings"
)

// SetupError is one user-facing error accumulated during a setup
// attempt. A non-empty error list means no running tenant was
// produced; the caller must re-present the messages.
type SetupError struct {
	// Field names the setting or property the error relates to, or ""
	// for errors not tied to a single input.
	Field   string
	Message string
}

func (e SetupError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// RecipeStepError is a structured failure raised by the recipe
// executor, identifying the step that failed. It is recovered into
// the setup error list, never rethrown to the caller.
type RecipeStepError struct {
	StepName string
	Messages []string
}

func (e *RecipeStepError) Error() string {
	return fmt.Sprintf("recipe step %q failed: %s", e.StepName, strings.Join(e.Messages, "; "))
}
