// Package registry implements the static action allow-list: the single
// control that makes user-authored workflows safe to run unattended.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/opsmith/agentforge/pkg/protocol"
)

// Registry maps action names to capability descriptors. It is populated at
// process start and never mutated by workflow content; the validator reads
// it to reject unknown action names before a definition is ever stored.
type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
	llmTool         protocol.LLMTool
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

// RegisterAction adds a capability to the allow-list.
func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
	r.logger.Debug("Registered action", "action_id", factory.ID())
}

// RegisterLLMTool injects the language-model capability used by llm steps.
func (r *Registry) RegisterLLMTool(tool protocol.LLMTool) {
	r.llmTool = tool
}

// ActionFactory returns the capability descriptor for an action name.
func (r *Registry) ActionFactory(actionID string) (protocol.ActionFactory, bool) {
	factory, ok := r.actionFactories[actionID]

	return factory, ok
}

// HasAction reports whether the action name is allow-listed.
func (r *Registry) HasAction(actionID string) bool {
	_, ok := r.actionFactories[actionID]

	return ok
}

// HasLLMTool reports whether an LLM tool has been injected.
func (r *Registry) HasLLMTool() bool {
	return r.llmTool != nil
}

// LLMTool returns the injected language-model capability.
func (r *Registry) LLMTool() (protocol.LLMTool, error) {
	if r.llmTool == nil {
		return nil, ErrNoLLMTool
	}

	return r.llmTool, nil
}

// CreateAction builds an action instance from resolved step configuration.
func (r *Registry) CreateAction(actionID string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotRegistered, actionID)
	}

	return factory.Create(config)
}

// ActionIDs returns the allow-listed action names in sorted order.
func (r *Registry) ActionIDs() []string {
	ids := make([]string, 0, len(r.actionFactories))
	for id := range r.actionFactories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
