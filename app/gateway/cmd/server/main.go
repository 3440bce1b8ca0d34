package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/visit_report/app/gateway/internal/conf"
	"github.com/iWorld-y/visit_report/app/gateway/internal/usecase"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name service name
	Name string = "visit_report.gateway"
	// Version service version
	Version string
	// flagconf config file path
	flagconf string
	// flagIssue prints a submission token for this subject and exits
	flagIssue string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/gateway/configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagIssue, "issue-token", "", "print a submission token for this subject and exit")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	if flagIssue != "" {
		auth := usecase.NewAuthUseCase(bc.Auth, logger)
		if !auth.Enabled() {
			fmt.Fprintln(os.Stderr, "auth.jwt_key is not configured")
			os.Exit(1)
		}
		token, err := auth.IssueToken(flagIssue, time.Now())
		if err != nil {
			panic(err)
		}
		fmt.Println(token)
		return
	}

	app, cleanup, err := initApp(bc.Server, bc.Pipeline, bc.Auth, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
