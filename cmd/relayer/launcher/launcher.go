package launcher

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ismp-bsc/flags"
	"github.com/rony4d/go-ismp-bsc/integration"
	"github.com/rony4d/go-ismp-bsc/logging"
	"github.com/rony4d/go-ismp-bsc/prover"
)

// Launch runs the CLI with the process arguments.
func Launch(args []string) error {
	return NewApp().Run(args)
}

// NewApp returns the CLI application with every command registered.
func NewApp() *cli.App {
	app := flags.NewApp()
	app.Flags = flags.AllFlags()
	app.Commands = []cli.Command{
		epochCommand,
		bootstrapCommand,
		updateCommand,
		watchCommand,
		verifyCommand,
		dumpConfigCommand,
	}
	return app
}

var (
	proverMetrics     *prover.Metrics
	proverMetricsOnce sync.Once
)

// setup loads the configuration and configures logging. Every command starts here.
func setup(ctx *cli.Context) (Config, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return cfg, err
	}
	if err := logging.Setup(logrus.StandardLogger(), cfg.Logging, ctx.App.ErrWriter); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// makeRuntime assembles the prover stack for cfg. The metrics server, when
// enabled, stops together with the returned cleanup.
func makeRuntime(ctx context.Context, cfg Config) (*integration.Runtime, func(), error) {
	preset, err := cfg.Preset()
	if err != nil {
		return nil, nil, err
	}
	rcfg := integration.RuntimeConfig{
		Preset:         preset,
		RequestTimeout: cfg.Node.Timeout.Duration,
		Logger:         logrus.StandardLogger(),
	}

	stopMetrics := func() {}
	if cfg.Metrics.Enabled {
		proverMetricsOnce.Do(func() {
			proverMetrics = prover.PrometheusMetrics(cfg.Metrics.Namespace)
		})
		rcfg.Metrics = proverMetrics
		srv := startMetricsServer(cfg.Metrics, logrus.WithField("module", "metrics"))
		stopMetrics = func() { _ = srv.Close() }
	}

	rt, err := integration.NewRuntime(ctx, rcfg)
	if err != nil {
		stopMetrics()
		return nil, nil, err
	}
	return rt, func() {
		rt.Close()
		stopMetrics()
	}, nil
}
