// Package recipe defines the declarative provisioning recipe model.
// A recipe is an ordered list of steps executed against a freshly
// built tenant container during setup.
package recipe

// Step is one declarative provisioning step. Parameters are opaque to
// the executor and interpreted by the step handler.
type Step struct {
	Name       string         `yaml:"name"`
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

// Descriptor describes one harvested recipe.
type Descriptor struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Website     string   `yaml:"website,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`

	// IsSetupRecipe marks recipes eligible to run during tenant setup.
	IsSetupRecipe bool `yaml:"is_setup_recipe,omitempty"`

	Steps []Step `yaml:"steps,omitempty"`
}
