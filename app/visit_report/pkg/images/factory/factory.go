package factory

import (
	"fmt"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/imagedir"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/imagehttp"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
)

// NewSource builds the configured image source, nil when photos are disabled
func NewSource(cfg config.ImagesConfig) (images.Source, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case "dir":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("images dir is missing")
		}
		return imagedir.NewSource(cfg.Dir), nil

	case "http":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("images base url is missing")
		}
		return imagehttp.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown images provider: %s", cfg.Provider)
	}
}
