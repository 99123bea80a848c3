package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/thrasher-corp/gct-backtester/signaler"
	"github.com/urfave/cli/v2"
)

const version = "v0.1.0"

var (
	configPath string
	verbose    bool
)

func main() {
	app := cli.NewApp()
	app.Name = "backtester"
	app.Version = version
	app.EnableBashCompletion = true
	app.Usage = "event driven backtesting of trading strategies against historical bars"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       config.DefaultBTConfigPath(),
			Usage:       "the application config file, defaults are used when it does not exist",
			EnvVars:     []string{config.EnvPrefix + "_CONFIG"},
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "log at debug level",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		runCommand,
		serveCommand,
		importCSVCommand,
		historyCommand,
		defaultConfigCommand,
	}

	ctx, stop := signaler.CancelOnInterrupt(context.Background())
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
	stop()
}

// loadAppConfig reads the application config and applies its logging
// settings. Missing config files fall back to the defaults
func loadAppConfig() (*config.BacktesterConfig, error) {
	cfg, err := config.ReadBacktesterConfigFromPath(configPath)
	if err != nil {
		if _, statErr := os.Stat(configPath); !errors.Is(statErr, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.GenerateDefaultBacktesterConfig()
	}
	if verbose {
		cfg.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if err = log.SetupGlobalLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	log.Debugf(log.Global, "using application config %v", configPath)
	return cfg, nil
}
