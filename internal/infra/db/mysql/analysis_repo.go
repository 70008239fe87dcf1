package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, tenant_id, created_at, title, description,
       clarifying_json, rounds_json, final_summary, market_insight, investor_output,
       scorecard_json, weighted_score, verdict, report_url, status, error, duration_ms`

// Save insert/update analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO idea_analyses
(id, tenant_id, created_at, title, description,
 clarifying_json, rounds_json, final_summary, market_insight, investor_output,
 scorecard_json, weighted_score, verdict, report_url, status, error, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 rounds_json=VALUES(rounds_json),
 final_summary=VALUES(final_summary), market_insight=VALUES(market_insight),
 investor_output=VALUES(investor_output), scorecard_json=VALUES(scorecard_json),
 weighted_score=VALUES(weighted_score), verdict=VALUES(verdict),
 report_url=VALUES(report_url), status=VALUES(status), error=VALUES(error),
 duration_ms=VALUES(duration_ms);
`
	tenant := stringOrDash(a.TenantID)
	status := stringOrDash(string(a.Status))
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, tenant, created, a.IdeaTitle, a.IdeaDescription,
		marshalJSON(a.Clarifying), marshalJSON(a.Rounds),
		a.FinalSummary, a.MarketInsight, a.InvestorOutput,
		marshalJSON(a.Scorecard), a.Scorecard.WeightedScore, a.Scorecard.Verdict,
		a.ReportURL, status, a.Error, a.DurationMS,
	)
	return err
}

// Get by ID + Tenant
func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + `
FROM idea_analyses
WHERE tenant_id=? AND id=? LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, tenant, id)
	return scanAnalysis(row.Scan)
}

// Latest analyses per tenant
func (r *AnalysisRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + analysisColumns + `
FROM idea_analyses
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Paginate with offset + limit (classic pagination)
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + analysisColumns + `
FROM idea_analyses
WHERE tenant_id=?
ORDER BY created_at DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.count(ctx, tenant)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       analyses,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Summary rolls up analysis outcomes since N days
func (r *AnalysisRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.SummaryStats, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total_analyses,
       COALESCE(SUM(status='success'),0) AS succeeded,
       COALESCE(SUM(status='failed'),0)  AS failed,
       COALESCE(AVG(CASE WHEN status='success' THEN weighted_score END),0) AS avg_score
FROM idea_analyses
WHERE tenant_id=? AND created_at >= ?;
`
	var s domain.SummaryStats
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&s.Total, &s.Succeeded, &s.Failed, &s.AvgScore); err != nil {
		return domain.SummaryStats{}, err
	}
	return s, nil
}

// UpdateStatus only touches the status and error columns
func (r *AnalysisRepository) UpdateStatus(ctx context.Context, tenant string, id domain.AnalysisID, status domain.Status, errMsg string) error {
	const q = `
UPDATE idea_analyses
SET status = ?, error = ?
WHERE tenant_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q, status, errMsg, tenant, id)
	return err
}

// UpdateReportURL records where the generated report was archived
func (r *AnalysisRepository) UpdateReportURL(ctx context.Context, tenant string, id domain.AnalysisID, url string) error {
	const q = `
UPDATE idea_analyses
SET report_url = ?
WHERE tenant_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q, url, tenant, id)
	return err
}

func (r *AnalysisRepository) count(ctx context.Context, tenant string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM idea_analyses WHERE tenant_id = ?", tenant).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanAnalysis(scan func(dest ...interface{}) error) (*domain.Analysis, error) {
	var a domain.Analysis
	var clarifying, rounds, scorecard []byte
	var weightedScore float64
	var verdict string
	if err := scan(
		&a.ID, &a.TenantID, &a.CreatedAt, &a.IdeaTitle, &a.IdeaDescription,
		&clarifying, &rounds, &a.FinalSummary, &a.MarketInsight, &a.InvestorOutput,
		&scorecard, &weightedScore, &verdict, &a.ReportURL, &a.Status, &a.Error, &a.DurationMS,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(clarifying, &a.Clarifying); err != nil {
		return nil, fmt.Errorf("decoding clarifying_json: %w", err)
	}
	if err := unmarshalJSON(rounds, &a.Rounds); err != nil {
		return nil, fmt.Errorf("decoding rounds_json: %w", err)
	}
	if err := unmarshalJSON(scorecard, &a.Scorecard); err != nil {
		return nil, fmt.Errorf("decoding scorecard_json: %w", err)
	}
	// The denormalized columns win when the JSON blob is missing.
	if a.Scorecard.WeightedScore == 0 {
		a.Scorecard.WeightedScore = weightedScore
	}
	if a.Scorecard.Verdict == "" && verdict != "" {
		a.Scorecard.Verdict = verdict
	}
	return &a, nil
}
