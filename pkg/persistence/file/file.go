// Package file provides file-based persistence for workflows and runs,
// storing each record as a JSON document under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
)

const fileMode = 0o644

// Persistence implements persistence.Persistence on the file system.
// Layout: <root>/workflows/<id>.json and <root>/runs/<id>.json.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is stripped so the root can be passed as a URL.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{cleanRoot, filepath.Join(cleanRoot, "workflows"), filepath.Join(cleanRoot, "runs")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persistence directory %s: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p }

func (p *Persistence) RunRepository() persistence.RunRepository { return p }

// HealthCheck verifies the root directory still exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file persistence.
func (p *Persistence) Close(_ context.Context) error { return nil }

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.root, "workflows", id+".json")
}

func (p *Persistence) runPath(id string) string {
	return filepath.Join(p.root, "runs", id+".json")
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	root := os.DirFS(filepath.Join(p.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	defs := make([]*models.WorkflowDefinition, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		id := strings.TrimSuffix(name, ".json")

		def, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].CreatedAt.Before(defs[j].CreatedAt) })

	return defs, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(p.workflowPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewWorkflowError("Get", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("Get", id, err)
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, persistence.NewWorkflowError("Get", id, err)
	}

	return &def, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, def *models.WorkflowDefinition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	if err := os.WriteFile(p.workflowPath(def.ID), data, fileMode); err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	err := os.Remove(p.workflowPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) Runs(ctx context.Context) ([]*models.WorkflowRun, error) {
	root := os.DirFS(filepath.Join(p.root, "runs"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.WorkflowRun, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		id := strings.TrimSuffix(name, ".json")

		run, err := p.RunByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}

		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })

	return runs, nil
}

func (p *Persistence) RunByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	data, err := os.ReadFile(p.runPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewRunStorageError("Get", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunStorageError("Get", id, err)
	}

	var run models.WorkflowRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, persistence.NewRunStorageError("Get", id, err)
	}

	return &run, nil
}

func (p *Persistence) RunsByWorkflowID(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	all, err := p.Runs(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.WorkflowRun, 0)

	for _, run := range all {
		if run.WorkflowID == workflowID {
			runs = append(runs, run)
		}
	}

	return runs, nil
}

func (p *Persistence) SaveRun(_ context.Context, run *models.WorkflowRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return persistence.NewRunStorageError("Save", run.ID, err)
	}

	if err := os.WriteFile(p.runPath(run.ID), data, fileMode); err != nil {
		return persistence.NewRunStorageError("Save", run.ID, err)
	}

	return nil
}
