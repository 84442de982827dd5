package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"

	"genrun/internal/adapters/storage/localfs"
	"genrun/internal/pkg/errors"
	"genrun/internal/pkg/logger"
	"genrun/internal/pkg/shutdown"
	"genrun/internal/replicate"
	"genrun/internal/runner"
	"genrun/internal/runner/report"
)

type Config struct {
	Token        string        `env:"REPLICATE_API_TOKEN"`
	BaseURL      string        `env:"GENRUN_BASE_URL" envDefault:"https://api.replicate.com/v1"`
	Timeout      time.Duration `env:"GENRUN_TIMEOUT" envDefault:"10m"`
	PollInterval time.Duration `env:"GENRUN_POLL_INTERVAL" envDefault:"1s"`
	WorkDir      string        `env:"GENRUN_WORK_DIR" envDefault:"."`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT" envDefault:"json"`
}

func main() {
	// stdout carries protocol records only; everything else goes to stderr.
	reporter := report.New(os.Stdout)

	if err := runMain(reporter); err != nil {
		os.Exit(1)
	}
}

func runMain(reporter *report.Reporter) error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return reportAndWrap(reporter, nil, errors.WrapWithCode(err, errors.CodeInputParse, "main.config", "failed to parse environment"))
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Output:      os.Stderr,
		ServiceName: "genrun",
	})

	if cfg.Token == "" {
		return reportAndWrap(reporter, log, errors.MissingCredential("REPLICATE_API_TOKEN"))
	}

	client, err := replicate.NewClient(replicate.Config{
		Token:        cfg.Token,
		BaseURL:      cfg.BaseURL,
		PollInterval: cfg.PollInterval,
		Log:          log,
	})
	if err != nil {
		return reportAndWrap(reporter, log, errors.Wrap(err, "main.client", "failed to create API client"))
	}

	sd := shutdown.NewManager(log, 5*time.Second)
	ctx, cancel := sd.Context(context.Background())
	defer cancel()
	defer sd.Cleanup()

	r := runner.New(runner.Deps{
		Client:   client,
		Store:    localfs.New(cfg.WorkDir),
		Reporter: reporter,
		Log:      log,
		Timeout:  cfg.Timeout,
		WorkDir:  cfg.WorkDir,
	})

	// The runner reports its own terminal record; a returned error only
	// means the host was already told. Exit non-zero solely when no
	// terminal record could be written at all.
	if err := r.Run(ctx, os.Stdin); err != nil && !reporter.Finished() {
		return err
	}
	return nil
}

// reportAndWrap emits a terminal failure for setup errors that happen
// before the runner exists.
func reportAndWrap(reporter *report.Reporter, log *logger.Logger, err *errors.Error) error {
	if log != nil {
		log.Error("startup failed", "code", string(err.Code), "description", err.Description())
	} else {
		fmt.Fprintln(os.Stderr, "startup failed:", err.Error())
	}
	if rerr := reporter.Failure(string(err.Code), err.Description()); rerr != nil {
		return rerr
	}
	return nil
}
