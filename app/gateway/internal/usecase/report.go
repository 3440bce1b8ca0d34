package usecase

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/visit_report/app/gateway/internal/domain"
	"github.com/iWorld-y/visit_report/app/gateway/internal/repo"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ReportUseCase archived reports and new submissions
type ReportUseCase struct {
	repo repo.ReportRepo
	gen  repo.ReportGenerator
	log  *log.Helper
}

// NewReportUseCase creates the report use case
func NewReportUseCase(repo repo.ReportRepo, gen repo.ReportGenerator, logger log.Logger) *ReportUseCase {
	return &ReportUseCase{repo: repo, gen: gen, log: log.NewHelper(logger)}
}

// List pages through report summaries, newest first
func (uc *ReportUseCase) List(ctx context.Context, page, pageSize int) ([]*domain.ReportSummary, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)
	return uc.repo.ListReports(ctx, pageSize, (page-1)*pageSize)
}

// Get one report with its recipients
func (uc *ReportUseCase) Get(ctx context.Context, id string) (*domain.ReportDetail, error) {
	if id == "" {
		return nil, errors.BadRequest("INVALID_ID", "report id is required")
	}
	return uc.repo.GetReport(ctx, id)
}

// Submit decodes a submission payload and runs the pipeline on it
func (uc *ReportUseCase) Submit(ctx context.Context, payload []byte, skipMail bool) (*domain.SubmitResult, error) {
	sub, err := intake.DecodeBytes(payload)
	if err != nil {
		if intake.IsInputError(err) {
			return nil, errors.BadRequest("INVALID_SUBMISSION", err.Error())
		}
		return nil, err
	}
	uc.log.WithContext(ctx).Infof("submission %q received with %d answers", sub.ResponseID, len(sub.Answers))
	return uc.gen.Generate(ctx, sub, skipMail)
}
