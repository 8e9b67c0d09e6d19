package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
	"github.com/promoguard/promoscan/internal/pipeline"
	"github.com/promoguard/promoscan/internal/storage"
)

type fakeService struct {
	analyzeErr error
	reloadErr  error
	lastReq    pipeline.AnalyzeRequest
}

func (f *fakeService) Analyze(_ context.Context, req pipeline.AnalyzeRequest) (*models.AnalysisResult, error) {
	f.lastReq = req
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &models.AnalysisResult{
		ID:         "res-1",
		Report:     models.ComplianceReport{Breakdown: models.ScoreBreakdown{TotalScore: 27.5, Level: models.LevelNonCompliant}},
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeService) QuickCheck(context.Context, string, string) *models.QuickCheckResult {
	return &models.QuickCheckResult{Score: 72.5, RiskLevel: models.RiskMedium}
}

func (f *fakeService) BatchAnalyze(_ context.Context, items []models.BatchItem) []models.BatchResult {
	results := make([]models.BatchResult, len(items))
	for i, item := range items {
		results[i] = models.BatchResult{ID: item.ID, Result: &models.AnalysisResult{ID: "res-" + item.ID}}
	}
	return results
}

func (f *fakeService) ReloadGuidelines(context.Context) error { return f.reloadErr }

type fakeGuidelines struct{ set *models.GuidelineSet }

func (f *fakeGuidelines) Set() *models.GuidelineSet { return f.set }

func (f *fakeGuidelines) All() []models.Rule {
	if f.set == nil {
		return nil
	}
	var rules []models.Rule
	for _, group := range f.set.Guidelines {
		rules = append(rules, group...)
	}
	return rules
}

type fakeReports struct{ results map[string]*models.AnalysisResult }

func (f *fakeReports) GetByID(_ context.Context, id string) (*models.AnalysisResult, error) {
	if result, ok := f.results[id]; ok {
		return result, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeReports) ListRecent(_ context.Context, limit int) ([]storage.StoredReport, error) {
	reports := []storage.StoredReport{
		{ID: "rep-1", Score: 27.5, Level: models.LevelNonCompliant, Risk: models.RiskHigh},
		{ID: "rep-2", Score: 91, Level: models.LevelCompliant, Risk: models.RiskLow},
	}
	if limit < len(reports) {
		reports = reports[:limit]
	}
	return reports, nil
}

type fakeExporter struct{ err error }

func (f *fakeExporter) Write(_ *models.AnalysisResult, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK-workbook-bytes"))
	return err
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(service *fakeService) *Server {
	guidelines := &fakeGuidelines{set: &models.GuidelineSet{
		Metadata: models.CorpusMetadata{Version: "2.1", TotalRules: 2},
		Guidelines: map[string][]models.Rule{
			"approval_claims":          {{ID: "CLAIM-001"}},
			"interest_rate_disclosure": {{ID: "RATE-001"}},
		},
	}}
	reports := &fakeReports{results: map[string]*models.AnalysisResult{
		"rep-1": {ID: "rep-1"},
	}}
	handlers := NewHandlers(service, guidelines, reports, &fakeExporter{}, zap.NewNop())
	return NewServer(DefaultConfig(), handlers, zap.NewNop())
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp apiResponse
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"healthy"`)
	assert.Contains(t, string(resp.Data), `"2.1"`)
}

func TestAnalyze(t *testing.T) {
	service := &fakeService{}
	srv := newTestServer(service)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/analyze",
		`{"text": "Guaranteed approval!", "context": "loan email", "document_id": "doc-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"res-1"`)
	assert.Equal(t, "Guaranteed approval!", service.lastReq.Text)
	assert.Equal(t, "loan email", service.lastReq.Context)
	assert.Equal(t, "doc-1", service.lastReq.DocumentID)
}

func TestAnalyze_MissingText(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", `{"context": "email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "text is required")
}

func TestAnalyze_ServiceError(t *testing.T) {
	srv := newTestServer(&fakeService{analyzeErr: errors.New("boom")})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", `{"text": "copy"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "analysis failed", resp.Error)
}

func TestQuickCheck_EmptyTextAllowed(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/quick-check", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"risk_level"`)
}

func TestBatch(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/batch",
		`{"items": [{"id": "a", "text": "one"}, {"id": "b", "text": "two"}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var results []models.BatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestBatch_EmptyRejected(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/batch", `{"items": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatch_TooLarge(t *testing.T) {
	srv := newTestServer(&fakeService{})

	var sb strings.Builder
	sb.WriteString(`{"items": [`)
	for i := 0; i < maxBatchItems+1; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id": "x", "text": "y"}`)
	}
	sb.WriteString(`]}`)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/batch", sb.String())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "exceeds")
}

func TestGuidelines(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/guidelines", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var data GuidelinesResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "2.1", data.Metadata.Version)
	assert.Equal(t, 2, data.RuleCount)
	assert.Equal(t, 1, data.Categories["approval_claims"])
}

func TestReloadGuidelines(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/guidelines/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestReloadGuidelines_SourceFailure(t *testing.T) {
	srv := newTestServer(&fakeService{reloadErr: errors.New("fetch failed")})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/guidelines/reload", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, resp.Error, "previous corpus still active")
}

func TestListReports(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reports?limit=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var reports []storage.StoredReport
	require.NoError(t, json.Unmarshal(resp.Data, &reports))
	assert.Len(t, reports, 1)
}

func TestListReports_BadLimit(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/v1/reports?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportReport(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/rep-1/export", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compliance-report-rep-1.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestExportReport_NotFound(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/reports/missing/export", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp.Error, "not found")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
