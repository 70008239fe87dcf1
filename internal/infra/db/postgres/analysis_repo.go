package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

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
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,$10,
        $11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
 rounds_json = EXCLUDED.rounds_json,
 final_summary = EXCLUDED.final_summary,
 market_insight = EXCLUDED.market_insight,
 investor_output = EXCLUDED.investor_output,
 scorecard_json = EXCLUDED.scorecard_json,
 weighted_score = EXCLUDED.weighted_score,
 verdict = EXCLUDED.verdict,
 report_url = EXCLUDED.report_url,
 status = EXCLUDED.status,
 error = EXCLUDED.error,
 duration_ms = EXCLUDED.duration_ms;`

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
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
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
WHERE tenant_id=$1 ORDER BY created_at DESC
LIMIT $2;`
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
WHERE tenant_id=$1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
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

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM idea_analyses WHERE tenant_id = $1", tenant).Scan(&total); err != nil {
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
       COALESCE(SUM(CASE WHEN status='success' THEN 1 ELSE 0 END),0) AS succeeded,
       COALESCE(SUM(CASE WHEN status='failed' THEN 1 ELSE 0 END),0)  AS failed,
       COALESCE(AVG(CASE WHEN status='success' THEN weighted_score END),0) AS avg_score
FROM idea_analyses
WHERE tenant_id=$1 AND created_at >= $2;`
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
SET status = $1, error = $2
WHERE tenant_id = $3 AND id = $4;`
	_, err := r.db.ExecContext(ctx, q, status, errMsg, tenant, id)
	return err
}

// UpdateReportURL records where the generated report was archived
func (r *AnalysisRepository) UpdateReportURL(ctx context.Context, tenant string, id domain.AnalysisID, url string) error {
	const q = `
UPDATE idea_analyses
SET report_url = $1
WHERE tenant_id = $2 AND id = $3;`
	_, err := r.db.ExecContext(ctx, q, url, tenant, id)
	return err
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
	if a.Scorecard.WeightedScore == 0 {
		a.Scorecard.WeightedScore = weightedScore
	}
	if a.Scorecard.Verdict == "" && verdict != "" {
		a.Scorecard.Verdict = verdict
	}
	return &a, nil
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func marshalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
