package debate

import "context"

// SummaryStats is the N-day rollup per tenant.
type SummaryStats struct {
	Total     int     `json:"total_analyses"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	AvgScore  float64 `json:"avg_weighted_score"`
}

// Repository port (interface for persistence)
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, tenant string, id AnalysisID) (*Analysis, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Analysis, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) (PaginatedResult, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (SummaryStats, error)
	UpdateStatus(ctx context.Context, tenant string, id AnalysisID, status Status, errMsg string) error
	UpdateReportURL(ctx context.Context, tenant string, id AnalysisID, url string) error
}

// ArtifactStore port (interface for report storage)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}
