package data

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/visit_report/app/gateway/internal/domain"
	"github.com/iWorld-y/visit_report/app/gateway/internal/repo"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/engine"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/storage"
)

const timeLayout = "2006-01-02 15:04:05"

// archive is the part of the store the repo reads from
type archive interface {
	ListReports(ctx context.Context, limit, offset int) ([]storage.Report, error)
	GetReport(ctx context.Context, id string) (*storage.Report, error)
}

type reportRepo struct {
	archive archive
	log     *log.Helper
}

func NewReportRepo(data *Data, logger log.Logger) repo.ReportRepo {
	return &reportRepo{
		archive: data.store,
		log:     log.NewHelper(logger),
	}
}

func (r *reportRepo) ListReports(ctx context.Context, limit, offset int) ([]*domain.ReportSummary, error) {
	reports, err := r.archive.ListReports(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ReportSummary, 0, len(reports))
	for i := range reports {
		s := toSummary(&reports[i])
		out = append(out, &s)
	}
	return out, nil
}

func (r *reportRepo) GetReport(ctx context.Context, id string) (*domain.ReportDetail, error) {
	rep, err := r.archive.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, kerrors.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return nil, err
	}

	detail := &domain.ReportDetail{
		ReportSummary: toSummary(rep),
		FilePath:      rep.FilePath,
		Substitutions: rep.Substitutions,
		Images:        rep.Images,
		Digest:        rep.Digest,
		Error:         rep.Error,
		Recipients:    make([]domain.Recipient, 0, len(rep.Recipients)),
	}
	for _, rc := range rep.Recipients {
		detail.Recipients = append(detail.Recipients, domain.Recipient{
			Address:   rc.Address,
			Kind:      rc.Kind,
			Delivered: rc.Delivered,
		})
	}
	return detail, nil
}

func toSummary(rep *storage.Report) domain.ReportSummary {
	s := domain.ReportSummary{
		ID:             rep.ID,
		ResponseID:     rep.ResponseID,
		Company:        rep.Company,
		Status:         rep.Status,
		RecipientCount: rep.GroupRecipients + rep.IndividualRecipients,
		CreatedAt:      rep.CreatedAt.Format(timeLayout),
	}
	if rep.VisitDate != nil {
		s.VisitDate = rep.VisitDate.Format(time.DateOnly)
	}
	return s
}

// runner is the part of the engine the generator drives
type runner interface {
	Run(ctx context.Context, sub *intake.Submission, opts engine.RunOptions) (*engine.Result, error)
}

type reportGenerator struct {
	engine runner
	log    *log.Helper
}

func NewReportGenerator(data *Data, logger log.Logger) repo.ReportGenerator {
	return &reportGenerator{
		engine: data.engine,
		log:    log.NewHelper(logger),
	}
}

func (g *reportGenerator) Generate(ctx context.Context, sub *intake.Submission, skipMail bool) (*domain.SubmitResult, error) {
	res, err := g.engine.Run(ctx, sub, engine.RunOptions{
		SkipMail: skipMail,
		ProgressCallback: func(status string, progress int) {
			g.log.WithContext(ctx).Debugf("[%s] %d%% %s", sub.ResponseID, progress, status)
		},
	})
	if err != nil {
		return nil, kerrors.InternalServer("REPORT_FAILED", err.Error())
	}
	return &domain.SubmitResult{
		ReportID:  res.ReportID,
		FilePath:  res.FilePath,
		Status:    res.Status,
		Leftovers: res.Leftovers,
	}, nil
}
