package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadops/enrich-cli/internal/config"
	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/pipeline"
	"github.com/leadops/enrich-cli/internal/store"
)

func init() {
	// Replace global logger with no-op for tests (suppress request log output).
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestServer(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	rules := config.DefaultRuleSet()

	pipe, err := pipeline.New(rules, 2)
	require.NoError(t, err)

	var st store.Store
	if withStore {
		sqlite, err := store.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
		require.NoError(t, err)
		require.NoError(t, sqlite.Migrate(context.Background()))
		t.Cleanup(func() { sqlite.Close() }) //nolint:errcheck
		st = sqlite
	}

	srv, err := New(rules, pipe, st)
	require.NoError(t, err)
	return srv.Router()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestValidateTaxID(t *testing.T) {
	handler := newTestServer(t, false)

	rr := postJSON(t, handler, "/v1/validate/tax-id", map[string]string{"value": "b-67217349"})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		IsValid     bool   `json:"is_valid"`
		FormattedID string `json:"formatted_id"`
		IDType      string `json:"id_type"`
		EntityType  string `json:"entity_type"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.IsValid)
	assert.Equal(t, "B67217349", body.FormattedID)
	assert.Equal(t, "CIF", body.IDType)
	assert.Equal(t, "Sociedad Limitada", body.EntityType)
}

func TestValidateTaxID_BadBody(t *testing.T) {
	handler := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/validate/tax-id", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidatePhone(t *testing.T) {
	handler := newTestServer(t, false)

	rr := postJSON(t, handler, "/v1/validate/phone", map[string]string{"value": "+34 612 345 678"})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		IsValid             bool   `json:"is_valid"`
		FormattedPhone      string `json:"formatted_phone"`
		PhoneType           string `json:"phone_type"`
		InternationalFormat string `json:"international_format"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.IsValid)
	assert.Equal(t, "612345678", body.FormattedPhone)
	assert.Equal(t, "mobile", body.PhoneType)
	assert.Equal(t, "+34 612 345 678", body.InternationalFormat)
}

func TestScoreEndpoint(t *testing.T) {
	handler := newTestServer(t, false)

	lead := model.Lead{
		model.FieldTaxID:       "B12345674",
		model.FieldCompanyName: "Test SL",
		model.FieldPhone:       "612345678",
		model.FieldPhoneValid:  "true",
		model.FieldConsumption: "120",
	}
	rr := postJSON(t, handler, "/v1/score", lead)
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Quality  string `json:"quality"`
		Priority int    `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "High", body.Quality)
	assert.Equal(t, 3, body.Priority)
}

func TestEnrichEndpoint_PersistsRun(t *testing.T) {
	handler := newTestServer(t, true)

	req := enrichRequest{Leads: []model.Lead{
		{model.FieldTaxID: "B67217349", model.FieldPhone: "612345678"},
	}}
	rr := postJSON(t, handler, "/v1/enrich", req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var body enrichResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.RunID)
	require.Len(t, body.Leads, 1)
	assert.Equal(t, "true", body.Leads[0].Get(model.FieldTaxIDValid))
	assert.Equal(t, 1, body.Result.Leads)

	// Run is visible afterwards.
	getReq := httptest.NewRequest(http.MethodGet, "/v1/runs/"+body.RunID, nil)
	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, getReq)
	assert.Equal(t, http.StatusOK, getRR.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &run))
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 1, run.Result.Leads)
}

func TestEnrichEndpoint_EmptyLeads(t *testing.T) {
	handler := newTestServer(t, true)

	rr := postJSON(t, handler, "/v1/enrich", enrichRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRuns_NoStore(t *testing.T) {
	handler := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	handler := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/missing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListRuns_InvalidLimit(t *testing.T) {
	handler := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?limit=abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
