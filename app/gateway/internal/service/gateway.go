package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/visit_report/app/gateway/internal/domain"
	"github.com/iWorld-y/visit_report/app/gateway/internal/usecase"
)

type SubmitReportReq struct {
	Payload  []byte `json:"-"`
	SkipMail bool   `json:"skip_mail"`
}

type ListReportsReq struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListReportsReply struct {
	Reports []*domain.ReportSummary `json:"reports"`
	Page    int                     `json:"page"`
}

type GetReportReq struct {
	Id string `json:"id"`
}

type GatewayService struct {
	ucReport *usecase.ReportUseCase
	log      *log.Helper
}

func NewGatewayService(ucReport *usecase.ReportUseCase, logger log.Logger) *GatewayService {
	return &GatewayService{
		ucReport: ucReport,
		log:      log.NewHelper(logger),
	}
}

func (s *GatewayService) SubmitReport(ctx context.Context, req *SubmitReportReq) (*domain.SubmitResult, error) {
	res, err := s.ucReport.Submit(ctx, req.Payload, req.SkipMail)
	if err != nil {
		s.log.WithContext(ctx).Errorf("submission rejected: %v", err)
		return nil, err
	}
	return res, nil
}

func (s *GatewayService) ListReports(ctx context.Context, req *ListReportsReq) (*ListReportsReply, error) {
	reports, err := s.ucReport.List(ctx, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return &ListReportsReply{Reports: reports, Page: max(req.Page, 1)}, nil
}

func (s *GatewayService) GetReport(ctx context.Context, req *GetReportReq) (*domain.ReportDetail, error) {
	return s.ucReport.Get(ctx, req.Id)
}
