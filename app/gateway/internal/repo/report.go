package repo

import (
	"context"

	"github.com/iWorld-y/visit_report/app/gateway/internal/domain"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
)

// ReportRepo archived report runs
type ReportRepo interface {
	// ListReports newest first
	ListReports(ctx context.Context, limit, offset int) ([]*domain.ReportSummary, error)
	// GetReport a single run with its recipients
	GetReport(ctx context.Context, id string) (*domain.ReportDetail, error)
}

// ReportGenerator runs the report pipeline for one submission
type ReportGenerator interface {
	Generate(ctx context.Context, sub *intake.Submission, skipMail bool) (*domain.SubmitResult, error)
}
