// Package memory provides an in-memory persistence implementation for
// tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
)

// Persistence keeps definitions and runs in process memory. Every record
// is deep-copied on the way in and out so callers can never mutate stored
// state through a shared pointer.
type Persistence struct {
	mu        sync.RWMutex
	workflows map[string]*models.WorkflowDefinition
	runs      map[string]*models.WorkflowRun
	runOrder  []string
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows: make(map[string]*models.WorkflowDefinition),
		runs:      make(map[string]*models.WorkflowRun),
		runOrder:  make([]string, 0),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p }

func (p *Persistence) RunRepository() persistence.RunRepository { return p }

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }

func (p *Persistence) Workflows(_ context.Context) ([]*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	defs := make([]*models.WorkflowDefinition, 0, len(p.workflows))
	for _, def := range p.workflows {
		defs = append(defs, def.Clone())
	}

	return defs, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	def, ok := p.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("Get", id, persistence.ErrWorkflowNotFound)
	}

	return def.Clone(), nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, def *models.WorkflowDefinition) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[def.ID] = def.Clone()

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workflows[id]; !ok {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	delete(p.workflows, id)

	return nil
}

func (p *Persistence) Runs(_ context.Context) ([]*models.WorkflowRun, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	runs := make([]*models.WorkflowRun, 0, len(p.runOrder))
	for _, id := range p.runOrder {
		runs = append(runs, p.runs[id].Clone())
	}

	return runs, nil
}

func (p *Persistence) RunByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	run, ok := p.runs[id]
	if !ok {
		return nil, persistence.NewRunStorageError("Get", id, persistence.ErrRunNotFound)
	}

	return run.Clone(), nil
}

func (p *Persistence) RunsByWorkflowID(_ context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	runs := make([]*models.WorkflowRun, 0)

	for _, id := range p.runOrder {
		if run := p.runs[id]; run.WorkflowID == workflowID {
			runs = append(runs, run.Clone())
		}
	}

	return runs, nil
}

func (p *Persistence) SaveRun(_ context.Context, run *models.WorkflowRun) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.runs[run.ID]; !ok {
		p.runOrder = append(p.runOrder, run.ID)
	}

	p.runs[run.ID] = run.Clone()

	return nil
}
