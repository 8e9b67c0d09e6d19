package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
	"github.com/promoguard/promoscan/internal/pipeline"
	"github.com/promoguard/promoscan/internal/storage"
)

const maxBatchItems = 100

// AnalysisService is the pipeline surface the handlers call
type AnalysisService interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*models.AnalysisResult, error)
	QuickCheck(ctx context.Context, text, marketingContext string) *models.QuickCheckResult
	BatchAnalyze(ctx context.Context, items []models.BatchItem) []models.BatchResult
	ReloadGuidelines(ctx context.Context) error
}

// GuidelineReader exposes the loaded corpus for the read endpoints
type GuidelineReader interface {
	Set() *models.GuidelineSet
	All() []models.Rule
}

// ReportReader loads persisted reports for listing and export
type ReportReader interface {
	GetByID(ctx context.Context, id string) (*models.AnalysisResult, error)
	ListRecent(ctx context.Context, limit int) ([]storage.StoredReport, error)
}

// ReportExporter renders one report as a workbook
type ReportExporter interface {
	Write(result *models.AnalysisResult, w io.Writer) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	service    AnalysisService
	guidelines GuidelineReader
	reports    ReportReader
	exporter   ReportExporter
	logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance. reports and exporter may be
// nil when persistence is disabled; the report endpoints then return 404.
func NewHandlers(service AnalysisService, guidelines GuidelineReader, reports ReportReader, exporter ReportExporter, logger *zap.Logger) *Handlers {
	return &Handlers{
		service:    service,
		guidelines: guidelines,
		reports:    reports,
		exporter:   exporter,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	Text       string `json:"text" binding:"required"`
	Context    string `json:"context"`
	DocumentID string `json:"document_id"`
	ActorID    string `json:"actor_id"`
}

// QuickCheckRequest is the body of POST /api/v1/quick-check. Text is not
// required; screening empty copy is a valid, well-formed request.
type QuickCheckRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// BatchRequest is the body of POST /api/v1/batch
type BatchRequest struct {
	Items []models.BatchItem `json:"items" binding:"required"`
}

// GuidelinesResponse summarizes the loaded corpus
type GuidelinesResponse struct {
	Metadata   models.CorpusMetadata `json:"metadata"`
	RuleCount  int                   `json:"rule_count"`
	Categories map[string]int        `json:"categories"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	GuidelineVersion string `json:"guideline_version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	version := ""
	if set := h.guidelines.Set(); set != nil {
		version = set.Metadata.Version
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:           "healthy",
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
			GuidelineVersion: version,
		},
	})
}

// Analyze handles POST /api/v1/analyze
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: text is required",
		})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), pipeline.AnalyzeRequest{
		Text:       req.Text,
		Context:    req.Context,
		DocumentID: req.DocumentID,
		ActorID:    req.ActorID,
	})
	if err != nil {
		h.logger.Error("Analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "analysis failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// QuickCheck handles POST /api/v1/quick-check
func (h *Handlers) QuickCheck(c *gin.Context) {
	var req QuickCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	result := h.service.QuickCheck(c.Request.Context(), req.Text, req.Context)
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Batch handles POST /api/v1/batch
func (h *Handlers) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: items is required",
		})
		return
	}

	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "batch must contain at least one item",
		})
		return
	}
	if len(req.Items) > maxBatchItems {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("batch exceeds %d items", maxBatchItems),
		})
		return
	}

	results := h.service.BatchAnalyze(c.Request.Context(), req.Items)
	c.JSON(http.StatusOK, Response{Success: true, Data: results})
}

// Guidelines handles GET /api/v1/guidelines
func (h *Handlers) Guidelines(c *gin.Context) {
	set := h.guidelines.Set()
	if set == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "guideline corpus not loaded",
		})
		return
	}

	categories := make(map[string]int, len(set.Guidelines))
	for category, rules := range set.Guidelines {
		categories[category] = len(rules)
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: GuidelinesResponse{
			Metadata:   set.Metadata,
			RuleCount:  len(h.guidelines.All()),
			Categories: categories,
		},
	})
}

// ReloadGuidelines handles POST /api/v1/guidelines/reload
func (h *Handlers) ReloadGuidelines(c *gin.Context) {
	if err := h.service.ReloadGuidelines(c.Request.Context()); err != nil {
		h.logger.Error("Guideline reload failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{
			Success: false,
			Error:   "guideline reload failed; previous corpus still active",
		})
		return
	}

	h.Guidelines(c)
}

// ListReports handles GET /api/v1/reports
func (h *Handlers) ListReports(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "report persistence is disabled",
		})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "limit must be between 1 and 100",
			})
			return
		}
		limit = parsed
	}

	reports, err := h.reports.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to list reports",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// ExportReport handles GET /api/v1/reports/:id/export
func (h *Handlers) ExportReport(c *gin.Context) {
	if h.reports == nil || h.exporter == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "report persistence is disabled",
		})
		return
	}

	id := c.Param("id")
	result, err := h.reports.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "report not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load report", zap.String("report_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load report",
		})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="compliance-report-%s.xlsx"`, id))
	c.Status(http.StatusOK)

	if err := h.exporter.Write(result, c.Writer); err != nil {
		// Headers are already sent; all we can do is log
		h.logger.Error("Failed to stream report export", zap.String("report_id", id), zap.Error(err))
	}
}
