package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/visit_report/app/gateway/internal/data"
	"github.com/iWorld-y/visit_report/app/gateway/internal/service"
	"github.com/iWorld-y/visit_report/app/gateway/internal/usecase"
)

// ProviderSet gateway dependency graph
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewGRPCServer,
	wire.Bind(new(Pinger), new(*data.Data)),

	// Data providers
	data.NewData,
	data.NewMetrics,
	data.NewReportRepo,
	data.NewReportGenerator,

	// UseCase providers
	usecase.NewReportUseCase,
	usecase.NewAuthUseCase,

	// Service providers
	service.NewGatewayService,
)
