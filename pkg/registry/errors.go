package registry

import "errors"

var (
	// ErrActionNotRegistered indicates an action name is not on the allow-list.
	ErrActionNotRegistered = errors.New("action not registered")

	// ErrInvalidActionConfig indicates a step configuration violates the
	// capability's schema.
	ErrInvalidActionConfig = errors.New("invalid action configuration")

	// ErrNoLLMTool indicates no language-model capability was injected.
	ErrNoLLMTool = errors.New("llm tool not registered")
)
