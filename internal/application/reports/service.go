package reports

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

// ErrNotReady is returned when a report is requested for an analysis
// that has not finished successfully.
var ErrNotReady = errors.New("analysis is not complete")

// Renderer turns a finished analysis into a PDF file at path.
type Renderer interface {
	Render(a *domain.Analysis, path string) error
}

// Service builds investor reports and archives them in object storage.
type Service struct {
	Repo     domain.Repository
	Store    domain.ArtifactStore
	Renderer Renderer
	Log      *zap.Logger
}

// Generate renders the report for one analysis, uploads it under a
// deterministic key and records the resulting URL. Calling it again
// overwrites the previous report.
func (s *Service) Generate(ctx context.Context, tenant string, id domain.AnalysisID) (string, error) {
	a, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return "", err
	}
	if a.Status != domain.StatusSuccess {
		return "", ErrNotReady
	}

	tmp, err := os.CreateTemp("", "ideacritic-report-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp report file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := s.Renderer.Render(a, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("render report: %w", err)
	}

	key := fmt.Sprintf("%s/reports/%s.pdf", tenant, id)
	url, err := s.Store.UploadAndCleanup(ctx, path, key)
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	if err := s.Repo.UpdateReportURL(ctx, tenant, id, url); err != nil {
		s.logger().Error("report uploaded but URL not recorded",
			zap.String("analysis_id", string(id)),
			zap.String("url", url),
			zap.Error(err))
		return "", err
	}
	return url, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
