package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
	"github.com/promoguard/promoscan/pkg/database"
)

// ErrNotFound is returned when no report exists for the requested ID
var ErrNotFound = errors.New("report not found")

// Migrations returns the schema owned by this package
func Migrations() []database.Migration {
	return []database.Migration{
		{
			Version: 1,
			Name:    "create_reports",
			SQL: `
				CREATE TABLE IF NOT EXISTS reports (
					id TEXT PRIMARY KEY,
					document_id TEXT NOT NULL DEFAULT '',
					actor TEXT NOT NULL DEFAULT '',
					score REAL NOT NULL,
					level TEXT NOT NULL,
					risk TEXT NOT NULL,
					cache_used INTEGER NOT NULL DEFAULT 0,
					payload TEXT NOT NULL,
					created_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_reports_document_id ON reports(document_id);
				CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
			`,
		},
		{
			Version: 2,
			Name:    "create_document_status",
			SQL: `
				CREATE TABLE IF NOT EXISTS document_status (
					document_id TEXT PRIMARY KEY,
					last_report_id TEXT NOT NULL,
					status TEXT NOT NULL,
					score REAL NOT NULL,
					risk TEXT NOT NULL,
					analyzed_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
			`,
		},
	}
}

// StoredReport is one persisted analysis row. The full result lives in the
// payload column; these fields exist for listing and filtering.
type StoredReport struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Actor      string                 `json:"actor"`
	Score      float64                `json:"score"`
	Level      models.ComplianceLevel `json:"level"`
	Risk       models.RiskLevel       `json:"risk"`
	CacheUsed  bool                   `json:"cache_used"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ReportRepository handles report persistence
type ReportRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Save persists a finished analysis result. When the result belongs to a
// document, the document's latest status row is updated in the same
// transaction.
func (r *ReportRepository) Save(ctx context.Context, documentID, actorID string, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	err = r.db.WithTransaction(func(tx *sql.Tx) error {
		query := `
			INSERT INTO reports (
				id, document_id, actor, score, level, risk, cache_used, payload, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			result.ID,
			documentID,
			actorID,
			result.Report.Breakdown.TotalScore,
			string(result.Report.Breakdown.Level),
			string(result.Report.Breakdown.Risk.Level),
			result.CacheUsed,
			string(payload),
			result.AnalyzedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}

		if documentID == "" {
			return nil
		}

		statusQuery := `
			INSERT OR REPLACE INTO document_status (
				document_id, last_report_id, status, score, risk, analyzed_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, statusQuery,
			documentID,
			result.ID,
			string(result.Report.Breakdown.Level),
			result.Report.Breakdown.TotalScore,
			string(result.Report.Breakdown.Risk.Level),
			result.AnalyzedAt.UTC(),
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to update document status: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save report",
			zap.String("report_id", result.ID),
			zap.String("document_id", documentID),
			zap.Error(err))
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetByID retrieves the full analysis result for a report ID
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM reports WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get report", zap.String("report_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report payload: %w", err)
	}
	return &result, nil
}

// ListRecent returns the newest reports, most recent first
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]StoredReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, document_id, actor, score, level, risk, cache_used, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanStoredReports(rows)
}

// ListByDocument returns every report recorded for one document, most
// recent first
func (r *ReportRepository) ListByDocument(ctx context.Context, documentID string) ([]StoredReport, error) {
	query := `
		SELECT id, document_id, actor, score, level, risk, cache_used, created_at
		FROM reports
		WHERE document_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to list reports by document",
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanStoredReports(rows)
}

func scanStoredReports(rows *sql.Rows) ([]StoredReport, error) {
	var reports []StoredReport
	for rows.Next() {
		var report StoredReport
		err := rows.Scan(
			&report.ID,
			&report.DocumentID,
			&report.Actor,
			&report.Score,
			&report.Level,
			&report.Risk,
			&report.CacheUsed,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
