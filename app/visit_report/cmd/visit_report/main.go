package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/engine"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/imagedir"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/logger"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/metrics"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/storage"
)

const (
	Version   = "0.3.0"
	BuildTime = "dev"
	appName   = "visit_report"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Site visit safety report generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Config file path (YAML)")

	cmd.AddCommand(generateCmd(&configPath), watchCmd(&configPath), renameCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

func generateCmd(configPath *string) *cobra.Command {
	var noMail bool

	cmd := &cobra.Command{
		Use:   "generate <submission.json>...",
		Short: "Generate, mail and archive reports for submission files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.close()

			var failed int
			for _, path := range args {
				res, err := app.engine.RunFile(ctx, path, engine.RunOptions{
					SkipMail: noMail,
					ProgressCallback: func(status string, progress int) {
						logger.Log.Debugf("[%3d%%] %s", progress, status)
					},
				})
				if err != nil {
					failed++
					logger.Log.Errorf("%s: %v", path, err)
					continue
				}
				fmt.Printf("%s\t%s\t%s\n", res.Status, res.FilePath, res.ReportID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noMail, "no-mail", false, "Generate and archive without sending mail")
	return cmd
}

func watchCmd(configPath *string) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process submission files dropped into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.close()

			w, err := intake.NewWatcher(app.cfg.Watch, func(ctx context.Context, path string) error {
				res, err := app.engine.RunFile(ctx, path, engine.RunOptions{})
				if err != nil {
					return err
				}
				logger.Log.Infof("%s -> %s (%s)", path, res.FilePath, res.Status)
				return nil
			}, logger.Log)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: app.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Log.Errorf("metrics server: %v", err)
					}
				}()
				defer srv.Close()
				logger.Log.Infof("metrics served on %s/metrics", metricsAddr)
			}

			<-ctx.Done()
			logger.Log.Info("shutting down watcher")
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9102")
	return cmd
}

func renameCmd(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename photos of the configured folders to IMG_ddmmyyyy_nnnn",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if len(cfg.Images.Rename) == 0 {
				logger.Log.Warn("no folders under images.rename, nothing to do")
				return nil
			}

			day := time.Now().In(cfg.Location())
			r := imagedir.NewRenamer(logger.Log, dryRun)
			var failed int
			for _, f := range cfg.Images.Rename {
				done, err := r.Rename(imagedir.Numbering{Dir: f.Dir, Start: f.Start, End: f.End}, day)
				if err != nil {
					failed++
					logger.Log.Errorf("%s: %v", f.Dir, err)
					continue
				}
				for _, d := range done {
					fmt.Printf("%s\t%s\n", d.From, d.To)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d folders could not be read", failed, len(cfg.Images.Rename))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the new names without renaming")
	return cmd
}

type app struct {
	cfg     *config.Config
	engine  *engine.Engine
	store   *storage.Store
	metrics *metrics.Metrics
}

func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Log.Infof("%s %s starting", appName, Version)

	a := &app{cfg: cfg, metrics: metrics.New()}

	// archive is optional, reports are still written without it
	var archive engine.Archive
	if store, err := storage.Open(ctx, cfg.DB); err != nil {
		logger.Log.Errorf("could not open report archive: %v. Reports will not be archived.", err)
	} else {
		a.store = store
		archive = store
		logger.Log.Infof("report archive ready (%s)", cfg.DB.Driver)
	}

	a.engine, err = engine.NewEngine(ctx, cfg, archive, engine.WithMetrics(a.metrics))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}
