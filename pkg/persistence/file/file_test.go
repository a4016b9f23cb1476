package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	store, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return store
}

func sampleDefinition(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:         id,
		Name:       "File Workflow",
		EntryPoint: "start",
		Steps: []*models.WorkflowStep{
			{ID: "start", Type: models.StepTypeAction, Config: map[string]any{"action": "log"}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestFile_AcceptsURLPrefix(t *testing.T) {
	root := t.TempDir()

	store, err := NewPersistence("file://" + root)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "workflows"))
	assert.DirExists(t, filepath.Join(root, "runs"))
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestFile_WorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	def := sampleDefinition("wf-1")
	def.Variables = models.Variables{"region": models.StringValue("eu")}

	require.NoError(t, store.SaveWorkflow(ctx, def))

	fetched, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "File Workflow", fetched.Name)
	assert.Equal(t, "start", fetched.EntryPoint)

	region, _ := fetched.Variables["region"].AsString()
	assert.Equal(t, "eu", region)
}

func TestFile_WorkflowsSortedByCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	older := sampleDefinition("wf-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)

	newer := sampleDefinition("wf-new")

	require.NoError(t, store.SaveWorkflow(ctx, newer))
	require.NoError(t, store.SaveWorkflow(ctx, older))

	defs, err := store.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "wf-old", defs[0].ID)
	assert.Equal(t, "wf-new", defs[1].ID)
}

func TestFile_WorkflowNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	_, err := store.WorkflowByID(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = store.DeleteWorkflow(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestFile_DeleteWorkflow(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	require.NoError(t, store.SaveWorkflow(ctx, sampleDefinition("wf-1")))
	require.NoError(t, store.DeleteWorkflow(ctx, "wf-1"))

	_, err := store.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestFile_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	run := models.NewWorkflowRun(sampleDefinition("wf-1"), models.Variables{"input": models.StringValue("x")})
	run.AppendStepResult(models.StepResult{
		StepID:    "start",
		Status:    models.StepStatusSucceeded,
		Output:    models.StringValue("done"),
		StartedAt: time.Now().UTC(),
		Attempt:   1,
	})
	run.Finish(models.RunStatusSucceeded, nil)

	require.NoError(t, store.SaveRun(ctx, run))

	fetched, err := store.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, fetched.Status)
	require.Len(t, fetched.StepResults, 1)

	output, _ := fetched.StepResults[0].Output.AsString()
	assert.Equal(t, "done", output)
}

func TestFile_RunsByWorkflowID(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	run1 := models.NewWorkflowRun(sampleDefinition("wf-1"), nil)
	run1.StartedAt = time.Now().UTC()
	run2 := models.NewWorkflowRun(sampleDefinition("wf-2"), nil)
	run2.StartedAt = time.Now().UTC()

	require.NoError(t, store.SaveRun(ctx, run1))
	require.NoError(t, store.SaveRun(ctx, run2))

	runs, err := store.RunsByWorkflowID(ctx, "wf-2")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run2.ID, runs[0].ID)
}

func TestFile_RunNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestPersistence(t)

	_, err := store.RunByID(ctx, "missing")
	assert.True(t, persistence.IsRunNotFound(err))
}
