package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadops/enrich-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "leads.xlsx", got.InputFile)
	assert.Equal(t, model.RunStatusQueued, got.Status)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunResult_Complete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	result := &model.RunResult{
		Leads:          42,
		Skipped:        3,
		PriorityCounts: map[int]int{4: 5, 1: 37},
		DurationMs:     1200,
		OutputFile:     "leads_enriched.xlsx",
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 42, got.Result.Leads)
	assert.Equal(t, 5, got.Result.PriorityCounts[4])
}

func TestSQLite_UpdateRunResult_ErrorMarksFailed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunResult(ctx, run.ID, &model.RunResult{Error: "open file: no such file"}))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
}

func TestSQLite_ListRuns_FilterByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, "a.xlsx")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "b.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, r1.ID, model.RunStatusRunning))

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r1.ID, runs[0].ID)
}

func TestSQLite_ListRuns_FilterByInputFile(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, "a.xlsx")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "b.xlsx")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{InputFile: "b.xlsx"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b.xlsx", runs[0].InputFile)
}

func TestSQLite_ListRuns_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRun(ctx, "a.xlsx")
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSQLite_SaveAndListLeadResults(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	results := []model.LeadResult{
		{RunID: run.ID, TaxID: "B67217349", CompanyName: "Acme SL", Priority: 4, Quality: model.QualityHigh, Completeness: 83.33, Confidence: 65.0, Sources: "phone:normalized"},
		{RunID: run.ID, TaxID: "G08663478", CompanyName: "Fundación Test", Priority: 1, Quality: model.QualityLow, Completeness: 20.0, Confidence: 0},
	}
	require.NoError(t, st.SaveLeadResults(ctx, results))

	got, err := st.ListLeadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by priority descending.
	assert.Equal(t, "B67217349", got[0].TaxID)
	assert.Equal(t, 4, got[0].Priority)
	assert.Equal(t, model.QualityHigh, got[0].Quality)
	assert.InDelta(t, 83.33, got[0].Completeness, 0.001)
	assert.Equal(t, "G08663478", got[1].TaxID)
}

func TestSQLite_SaveLeadResults_UpsertOnRerun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	first := []model.LeadResult{{RunID: run.ID, TaxID: "B67217349", Priority: 2, Quality: model.QualityMedium}}
	require.NoError(t, st.SaveLeadResults(ctx, first))

	second := []model.LeadResult{{RunID: run.ID, TaxID: "B67217349", Priority: 4, Quality: model.QualityHigh}}
	require.NoError(t, st.SaveLeadResults(ctx, second))

	got, err := st.ListLeadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Priority)
	assert.Equal(t, model.QualityHigh, got[0].Quality)
}

func TestSQLite_SaveLeadResults_EmptyTaxIDsStayDistinct(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "leads.xlsx")
	require.NoError(t, err)

	// Phone-only leads have no tax ID; each must keep its own audit row.
	results := []model.LeadResult{
		{RunID: run.ID, TaxID: "", CompanyName: "Acme SL", Priority: 2, Quality: model.QualityMedium},
		{RunID: run.ID, TaxID: "", CompanyName: "Beta SA", Priority: 1, Quality: model.QualityLow},
	}
	require.NoError(t, st.SaveLeadResults(ctx, results))

	got, err := st.ListLeadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme SL", got[0].CompanyName)
	assert.Equal(t, "Beta SA", got[1].CompanyName)
}

func TestSQLite_SaveLeadResults_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.SaveLeadResults(context.Background(), nil))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), Config{DatabaseURL: dbPath})
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.(*SQLiteStore)
	assert.True(t, ok)
}
