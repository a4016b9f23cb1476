package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateActionConfig checks a step's configuration against the capability
// descriptor's JSON schema. A nil schema means the action accepts any
// configuration.
func (r *Registry) ValidateActionConfig(actionID string, config map[string]any) error {
	factory, ok := r.actionFactories[actionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrActionNotRegistered, actionID)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema check for action %q: %w", actionID, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidActionConfig, strings.Join(descriptions, "; "))
	}

	return nil
}
