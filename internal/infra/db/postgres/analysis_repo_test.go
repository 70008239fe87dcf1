package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideacritic/ideacritic/internal/domain/agents"
	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

func newMockRepo(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db), mock
}

func sampleAnalysis() *domain.Analysis {
	return &domain.Analysis{
		ID:              "an-1",
		TenantID:        "acme",
		IdeaTitle:       "EcoSnap",
		IdeaDescription: "AI litter detection",
		Clarifying:      []domain.QA{{Question: "Who pays?", Answer: "Cities."}},
		Rounds: []domain.Turn{
			{Round: 1, Role: "Optimist", Text: "love it"},
			{Round: 1, Role: "Critic", Text: "prove it"},
		},
		FinalSummary: "summary",
		Scorecard: agents.Scorecard{
			WeightedScore: 66.5,
			Verdict:       agents.VerdictWithCaution,
		},
		Status:    domain.StatusSuccess,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func analysisRows(a *domain.Analysis) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "created_at", "title", "description",
		"clarifying_json", "rounds_json", "final_summary", "market_insight", "investor_output",
		"scorecard_json", "weighted_score", "verdict", "report_url", "status", "error", "duration_ms",
	}).AddRow(
		string(a.ID), a.TenantID, a.CreatedAt, a.IdeaTitle, a.IdeaDescription,
		marshalJSON(a.Clarifying), marshalJSON(a.Rounds),
		a.FinalSummary, a.MarketInsight, a.InvestorOutput,
		marshalJSON(a.Scorecard), a.Scorecard.WeightedScore, a.Scorecard.Verdict,
		a.ReportURL, string(a.Status), a.Error, a.DurationMS,
	)
}

func TestSaveUpserts(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs(
			string(a.ID), a.TenantID, a.CreatedAt, a.IdeaTitle, a.IdeaDescription,
			marshalJSON(a.Clarifying), marshalJSON(a.Rounds),
			a.FinalSummary, a.MarketInsight, a.InvestorOutput,
			marshalJSON(a.Scorecard), a.Scorecard.WeightedScore, a.Scorecard.Verdict,
			a.ReportURL, string(a.Status), a.Error, a.DurationMS,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDecodesJSONColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id=$1 AND id=$2")).
		WithArgs("acme", "an-1").
		WillReturnRows(analysisRows(a))

	got, err := repo.Get(context.Background(), "acme", "an-1")
	require.NoError(t, err)
	assert.Equal(t, a.IdeaTitle, got.IdeaTitle)
	require.Len(t, got.Rounds, 2)
	assert.Equal(t, "Critic", got.Rounds[1].Role)
	assert.Equal(t, "Who pays?", got.Clarifying[0].Question)
	assert.Equal(t, 66.5, got.Scorecard.WeightedScore)
	assert.Equal(t, agents.VerdictWithCaution, got.Scorecard.Verdict)
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id=$1 AND id=$2")).
		WithArgs("acme", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "acme", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLatest(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs("acme", 5).
		WillReturnRows(analysisRows(a))

	out, err := repo.Latest(context.Background(), "acme", 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.AnalysisID("an-1"), out[0].ID)
}

func TestPaginate(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAnalysis()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("acme", 10, 10).
		WillReturnRows(analysisRows(a))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM idea_analyses")).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	res, err := repo.Paginate(context.Background(), "acme", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(21), res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Data, 1)
}

func TestSummary(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(CASE WHEN status='success' THEN 1 ELSE 0 END),0)")).
		WithArgs("acme", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_analyses", "succeeded", "failed", "avg_score"}).
			AddRow(10, 7, 3, 61.2))

	s, err := repo.Summary(context.Background(), "acme", 30)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 7, s.Succeeded)
	assert.Equal(t, 3, s.Failed)
	assert.Equal(t, 61.2, s.AvgScore)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, error = $2")).
		WithArgs("failed", "model unavailable", "acme", "an-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "acme", "an-1", domain.StatusFailed, "model unavailable")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReportURL(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("SET report_url = $1")).
		WithArgs("https://store.local/acme/reports/an-1.pdf", "acme", "an-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateReportURL(context.Background(), "acme", "an-1", "https://store.local/acme/reports/an-1.pdf")
	require.NoError(t, err)
}
