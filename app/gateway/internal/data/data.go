package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/visit_report/app/gateway/internal/conf"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/engine"
	pipelineLogger "github.com/iWorld-y/visit_report/app/visit_report/pkg/logger"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/metrics"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/storage"
)

// Data resources shared by the repositories
type Data struct {
	store   *storage.Store
	engine  *engine.Engine
	metrics *metrics.Metrics
}

// NewData loads the pipeline config, opens the archive and builds the engine
func NewData(c *conf.Pipeline, logger log.Logger) (*Data, func(), error) {
	if c == nil || c.Config == "" {
		return nil, nil, fmt.Errorf("pipeline.config is required")
	}
	helper := log.NewHelper(logger)

	cfg, err := config.LoadConfig(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load pipeline config: %w", err)
	}
	if err := pipelineLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("Failed to init pipeline logger: %v", err)
		_ = pipelineLogger.InitLogger("info", "")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()
	eng, err := engine.NewEngine(ctx, cfg, store, engine.WithMetrics(m))
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		store.Close()
	}
	return &Data{store: store, engine: eng, metrics: m}, cleanup, nil
}

// NewMetrics exposes the pipeline collectors to the servers
func NewMetrics(d *Data) *metrics.Metrics {
	return d.metrics
}

// Ping checks the archive connection
func (d *Data) Ping(ctx context.Context) error {
	return d.store.DB().PingContext(ctx)
}
