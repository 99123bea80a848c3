package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/database/repository/candle"
	"github.com/thrasher-corp/gct-backtester/database/repository/run"
	"github.com/thrasher-corp/gct-backtester/engine"
	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/urfave/cli/v2"
)

var errNoStrategyConfigs = errors.New("at least one strategy config is required")

func jsonOutput(in any) {
	j, err := json.MarshalIndent(in, "", " ")
	if err != nil {
		return
	}
	fmt.Println(string(j))
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "executes one or more strategy configs and prints their results",
	ArgsUsage: "<strategy-config> [strategy-config...]",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Usage: "the number of runs executed in parallel, defaults to the configured maximum",
		},
		&cli.BoolFlag{
			Name:  "print-config",
			Usage: "prints each strategy config before it runs",
		},
	},
	Action: runStrategies,
}

func runStrategies(c *cli.Context) error {
	if c.NArg() == 0 {
		return errNoStrategyConfigs
	}
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	rs, closeDB := runSettings(c, cfg)
	defer closeDB()

	runs := make([]*engine.BackTest, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		var strategyCfg *config.Config
		strategyCfg, err = config.ReadConfigFromFile(path)
		if err != nil {
			return err
		}
		if c.Bool("print-config") {
			strategyCfg.PrintSetting()
		}
		applyReportPath(cfg, strategyCfg)
		var bt *engine.BackTest
		bt, err = engine.NewFromConfig(c.Context, strategyCfg, rs)
		if err != nil {
			return fmt.Errorf("%v: %w", path, err)
		}
		runs = append(runs, bt)
	}
	workers := c.Int("workers")
	if workers <= 0 {
		workers = cfg.MaxConcurrentRuns
	}
	results, err := engine.RunAll(c.Context, runs, workers)
	if results == nil {
		return err
	}
	summaries := make([]*engine.RunSummary, 0, len(runs))
	for i := range runs {
		if results[i] != nil {
			summaries = append(summaries, runs[i].GenerateSummary())
		}
	}
	jsonOutput(summaries)
	return err
}

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "serves the REST API for submitting and managing runs until interrupted",
	Action: serve,
}

func serve(c *cli.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if !cfg.Server.Enabled {
		return errors.New("server is disabled in the application config")
	}
	rs, closeDB := runSettings(c, cfg)
	defer closeDB()

	tm, err := engine.NewTaskManager(c.Context, cfg.MaxConcurrentRuns)
	if err != nil {
		return err
	}
	srv, err := engine.NewServer(tm, rs, cfg.Server.SubmissionsPerSecond, cfg.Server.SubmissionBurst)
	if err != nil {
		return err
	}
	err = srv.ListenAndServe(c.Context, cfg.Server.ListenAddress, cfg.Server.ShutdownTimeout)
	if cfg.StopAllTasksOnClose {
		stopped, stopErr := tm.StopAllTasks()
		if stopErr != nil {
			log.Errorf(log.Global, "could not stop runs: %v", stopErr)
		}
		log.Infof(log.Global, "stopped %d runs", len(stopped))
	}
	tm.Wait()
	return err
}

var importCSVCommand = &cli.Command{
	Name:  "import-csv",
	Usage: "stores the bars of a csv file in the candle table so strategy configs can use database-data",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "instrument",
			Usage:    "the instrument the bars belong to",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "file",
			Usage:    "the csv file to import",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "the interval of the bars",
			Value: 24 * time.Hour,
		},
	},
	Action: importCSV,
}

func importCSV(c *cli.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(c.Context, &cfg.Database, cfg.DataDirectory)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.CloseConnection(); closeErr != nil {
			log.Errorln(log.Database, closeErr)
		}
	}()
	instrument := strings.TrimSpace(c.String("instrument"))
	n, err := candle.InsertFromCSV(c.Context, db, instrument, c.Duration("interval"), c.String("file"))
	if err != nil {
		return err
	}
	log.Infof(log.Database, "imported %d %v candles from %v", n, instrument, c.String("file"))
	return nil
}

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "lists the runs stored in the database, or the equity and audit log of one run",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "the run to show in full",
		},
	},
	Action: history,
}

func history(c *cli.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(c.Context, &cfg.Database, cfg.DataDirectory)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.CloseConnection(); closeErr != nil {
			log.Errorln(log.Database, closeErr)
		}
	}()
	id := c.String("id")
	if id == "" {
		summaries, err := run.ListSummaries(c.Context, db)
		if err != nil {
			return err
		}
		jsonOutput(summaries)
		return nil
	}
	sum, err := run.GetSummary(c.Context, db, id)
	if err != nil {
		return err
	}
	equity, err := run.GetEquity(c.Context, db, id)
	if err != nil {
		return err
	}
	audit, err := run.GetAudit(c.Context, db, id)
	if err != nil {
		return err
	}
	jsonOutput(map[string]any{
		"summary": sum,
		"equity":  equity,
		"audit":   audit,
	})
	return nil
}

var defaultConfigCommand = &cli.Command{
	Name:  "default-config",
	Usage: "writes an example strategy config and the default application config",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "where the example strategy config is written",
			Value: filepath.Join(config.DefaultBTDir(), "strategies", "momentum.json"),
		},
		&cli.BoolFlag{
			Name:  "app",
			Usage: "also writes the default application config to the config path",
		},
	},
	Action: writeDefaultConfigs,
}

func writeDefaultConfigs(c *cli.Context) error {
	app := config.GenerateDefaultBacktesterConfig()
	strategyCfg := config.GenerateDefaultConfig(app.DataDirectory)
	if err := strategyCfg.SaveConfig(c.String("output")); err != nil {
		return err
	}
	fmt.Println("strategy config written to", c.String("output"))
	if !c.Bool("app") {
		return nil
	}
	if err := app.SaveBacktesterConfig(configPath); err != nil {
		return err
	}
	fmt.Println("application config written to", configPath)
	return nil
}

// runSettings connects the application database when it is enabled. Runs
// which do not need it still work when the connection fails
func runSettings(c *cli.Context, cfg *config.BacktesterConfig) (*engine.RunSettings, func()) {
	rs := &engine.RunSettings{
		DataDirectory: cfg.DataDirectory,
		DarkReport:    cfg.Report.DarkMode,
	}
	closeDB := func() {}
	if !cfg.Database.Enabled {
		return rs, closeDB
	}
	db, err := database.Open(c.Context, &cfg.Database, cfg.DataDirectory)
	if err != nil {
		log.Warnf(log.Database, "database unavailable: %v", err)
		return rs, closeDB
	}
	rs.Database = db
	return rs, func() {
		if err := db.CloseConnection(); err != nil {
			log.Errorln(log.Database, err)
		}
	}
}

// applyReportPath names a report in the configured output directory for
// strategies which do not set their own
func applyReportPath(app *config.BacktesterConfig, cfg *config.Config) {
	if !app.Report.GenerateReport || cfg.OutputSettings.ReportPath != "" || app.Report.OutputPath == "" {
		return
	}
	name := cfg.Nickname
	if name == "" {
		name = cfg.StrategySettings.Name
	}
	name = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	cfg.OutputSettings.ReportPath = filepath.Join(app.Report.OutputPath, fmt.Sprintf("%v-%v.html", name, time.Now().Format("20060102150405")))
}
