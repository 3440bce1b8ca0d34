package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/iWorld-y/visit_report/app/gateway/internal/conf"
	"github.com/iWorld-y/visit_report/app/gateway/internal/service"
	"github.com/iWorld-y/visit_report/app/gateway/internal/usecase"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/metrics"
)

func NewHTTPServer(c *conf.Server, auth *usecase.AuthUseCase, s *service.GatewayService, m *metrics.Metrics, logger log.Logger) *http.Server {
	mws := []middleware.Middleware{
		recovery.Recovery(),
		logging.Server(logger),
	}
	if auth.Enabled() {
		mws = append(mws, selector.Server(
			jwt.Server(auth.KeyFunc, jwt.WithSigningMethod(jwtv5.SigningMethodHS256)),
		).Path(
			service.OperationGatewaySubmitReport,
			service.OperationGatewayListReports,
			service.OperationGatewayGetReport,
		).Build())
	}

	var opts = []http.ServerOption{
		http.Middleware(mws...),
	}
	var maxBody int64
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
		maxBody = c.Http.MaxBody
	}

	srv := http.NewServer(opts...)
	service.RegisterGatewayHTTPServer(srv, s, maxBody)
	if m != nil {
		srv.Handle("/metrics", m.Handler())
	}
	return srv
}
