package service

import (
	"context"
	"io"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationGatewaySubmitReport = "/visit_report.gateway.v1.Gateway/SubmitReport"
	OperationGatewayListReports  = "/visit_report.gateway.v1.Gateway/ListReports"
	OperationGatewayGetReport    = "/visit_report.gateway.v1.Gateway/GetReport"
)

// DefaultMaxBody submission payload limit when none is configured
const DefaultMaxBody = 1 << 20

func RegisterGatewayHTTPServer(s *http.Server, srv *GatewayService, maxBody int64) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	r := s.Route("/")
	r.POST("/v1/submissions", _Gateway_SubmitReport_HTTP_Handler(srv, maxBody))
	r.GET("/v1/reports", _Gateway_ListReports_HTTP_Handler(srv))
	r.GET("/v1/reports/{id}", _Gateway_GetReport_HTTP_Handler(srv))
}

func _Gateway_SubmitReport_HTTP_Handler(srv *GatewayService, maxBody int64) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in SubmitReportReq
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxBody+1))
		if err != nil {
			return errors.BadRequest("INVALID_SUBMISSION", err.Error())
		}
		if int64(len(payload)) > maxBody {
			return errors.New(413, "PAYLOAD_TOO_LARGE", "submission exceeds the size limit")
		}
		in.Payload = payload

		http.SetOperation(ctx, OperationGatewaySubmitReport)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.SubmitReport(ctx, req.(*SubmitReportReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(202, out)
	}
}

func _Gateway_ListReports_HTTP_Handler(srv *GatewayService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListReportsReq
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGatewayListReports)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListReports(ctx, req.(*ListReportsReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Gateway_GetReport_HTTP_Handler(srv *GatewayService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in GetReportReq
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGatewayGetReport)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetReport(ctx, req.(*GetReportReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
