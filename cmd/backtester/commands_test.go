package main

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/urfave/cli/v2"
)

func TestApplyReportPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	app := config.GenerateDefaultBacktesterConfig()
	app.Report.GenerateReport = true
	app.Report.OutputPath = dir

	cfg := &config.Config{Nickname: "Daily Momentum"}
	cfg.StrategySettings.Name = "momentum"
	applyReportPath(app, cfg)
	assert.Equal(t, dir, filepath.Dir(cfg.OutputSettings.ReportPath))
	assert.True(t, strings.HasPrefix(filepath.Base(cfg.OutputSettings.ReportPath), "daily-momentum-"))
	assert.Equal(t, ".html", filepath.Ext(cfg.OutputSettings.ReportPath))

	cfg = &config.Config{}
	cfg.OutputSettings.ReportPath = "mine.html"
	applyReportPath(app, cfg)
	assert.Equal(t, "mine.html", cfg.OutputSettings.ReportPath, "an explicit report path should be kept")

	app.Report.GenerateReport = false
	cfg = &config.Config{}
	applyReportPath(app, cfg)
	assert.Empty(t, cfg.OutputSettings.ReportPath)
}

func TestCommandFlags(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		cmd  *cli.Command
		flag string
	}{
		{runCommand, "workers"},
		{runCommand, "print-config"},
		{importCSVCommand, "instrument"},
		{importCSVCommand, "file"},
		{importCSVCommand, "interval"},
		{historyCommand, "id"},
		{defaultConfigCommand, "output"},
		{defaultConfigCommand, "app"},
	} {
		var found bool
		for _, f := range tc.cmd.Flags {
			found = found || slices.Contains(f.Names(), tc.flag)
		}
		assert.Truef(t, found, "%v should have flag %v", tc.cmd.Name, tc.flag)
	}
}
