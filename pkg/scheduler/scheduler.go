// Package scheduler launches runs for workflow definitions that declare a
// cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/workflow"
)

// Scheduler registers one cron entry per scheduled workflow and invokes
// the Builder's run operation when the entry fires. Each fired run is an
// independent task on its own goroutine managed by the cron runner.
type Scheduler struct {
	builder *workflow.Builder
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	id   cron.EntryID
	spec string
}

func NewScheduler(builder *workflow.Builder, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		builder: builder,
		cron:    cron.New(),
		logger:  logger.With("module", "scheduler"),
		entries: make(map[string]entry),
	}
}

// ValidateExpression checks a cron expression in the standard 5-field form.
func ValidateExpression(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return nil
}

// Reload synchronizes cron entries with the stored definitions: scheduled
// workflows gain an entry, ones whose schedule changed are re-registered,
// unscheduled or deleted ones lose theirs.
func (s *Scheduler) Reload(ctx context.Context) error {
	defs, err := s.builder.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		if def.Schedule == "" {
			continue
		}

		seen[def.ID] = true

		if current, registered := s.entries[def.ID]; registered {
			if current.spec == def.Schedule {
				continue
			}

			s.cron.Remove(current.id)
			delete(s.entries, def.ID)
		}

		entryID, err := s.cron.AddFunc(def.Schedule, s.launch(def.ID))
		if err != nil {
			s.logger.Error("Failed to schedule workflow", "workflow_id", def.ID, "cron", def.Schedule, "error", err)

			continue
		}

		s.entries[def.ID] = entry{id: entryID, spec: def.Schedule}
		s.logger.Info("Scheduled workflow", "workflow_id", def.ID, "cron", def.Schedule)
	}

	for workflowID, current := range s.entries {
		if !seen[workflowID] {
			s.cron.Remove(current.id)
			delete(s.entries, workflowID)
			s.logger.Info("Unscheduled workflow", "workflow_id", workflowID)
		}
	}

	return nil
}

// Entries returns the workflow ids currently scheduled.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for workflowID := range s.entries {
		ids = append(ids, workflowID)
	}

	return ids
}

func (s *Scheduler) launch(workflowID string) func() {
	return func() {
		ctx := context.Background()

		run, err := s.builder.Run(ctx, workflowID, models.Variables{})
		if err != nil {
			s.logger.Error("Scheduled run failed to start", "workflow_id", workflowID, "error", err)

			return
		}

		s.logger.Info("Scheduled run finished", "workflow_id", workflowID, "run_id", run.ID, "status", run.Status)
	}
}

// Start begins firing cron entries.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops firing and waits for in-flight scheduled runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
