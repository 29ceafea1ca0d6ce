package tenant

import "testing"

func TestStateRoundTrip(t *testing.T) {
	states := []State{Uninitialized, Initializing, Running, Disabled}
	for _, s := range states {
		if got := ParseState(s.String()); got != s {
			t.Errorf("ParseState(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseStateUnknown(t *testing.T) {
	for _, s := range []string{"", "bogus", "RUNNING"} {
		if got := ParseState(s); got != Uninitialized {
			t.Errorf("ParseState(%q) = %v, want Uninitialized", s, got)
		}
	}
}

func TestConfigClone(t *testing.T) {
	c := &Config{Name: "alpha", State: Running, TablePrefix: "alpha"}
	dup := c.Clone()

	dup.State = Disabled
	dup.TablePrefix = "beta"

	if c.State != Running || c.TablePrefix != "alpha" {
		t.Errorf("mutation of clone leaked into original: %+v", c)
	}
}

func TestSetupErrorString(t *testing.T) {
	withField := SetupError{Field: "connection", Message: "could not be validated"}
	if got := withField.Error(); got != "connection: could not be validated" {
		t.Errorf("Error() = %q", got)
	}

	bare := SetupError{Message: "something failed"}
	if got := bare.Error(); got != "something failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRecipeStepErrorString(t *testing.T) {
	err := &RecipeStepError{StepName: "feature", Messages: []string{"a", "b"}}
	want := `recipe step "feature" failed: a; b`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSetupContextProperties(t *testing.T) {
	sc := &SetupContext{}

	if got := sc.Property("missing"); got != "" {
		t.Errorf("Property on empty bag = %q, want empty", got)
	}

	sc.SetProperty(PropSiteName, "Alpha")
	if got := sc.Property(PropSiteName); got != "Alpha" {
		t.Errorf("Property = %q, want %q", got, "Alpha")
	}

	if sc.HasErrors() {
		t.Error("fresh context reports errors")
	}
	sc.AddError("name", "required")
	if !sc.HasErrors() || len(sc.Errors) != 1 {
		t.Errorf("Errors = %v", sc.Errors)
	}
}
