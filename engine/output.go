package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/gct-backtester/data"
	"github.com/thrasher-corp/gct-backtester/database/repository/run"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/thrasher-corp/gct-backtester/report"
)

// writeOutput writes the configured logs, report and database rows for a
// result. Every output is attempted, failures are joined
func (bt *BackTest) writeOutput(ctx context.Context, res *Result) error {
	var errs error
	if bt.output.EquityLogPath != "" {
		if err := report.WriteEquityLog(bt.output.EquityLogPath, res.EquityCurve); err != nil {
			errs = errors.Join(errs, fmt.Errorf("equity log: %w", err))
		} else {
			log.Infof(bt.logger, "equity log written to %v", bt.output.EquityLogPath)
		}
	}
	if bt.output.AuditLogPath != "" {
		if err := report.WriteAuditLog(bt.output.AuditLogPath, res.Audit); err != nil {
			errs = errors.Join(errs, fmt.Errorf("audit log: %w", err))
		} else {
			log.Infof(bt.logger, "audit log written to %v", bt.output.AuditLogPath)
		}
	}
	if bt.output.ReportPath != "" && res.Statistic != nil {
		var bars []kline.Event
		if s, ok := bt.Feed.(data.Streamer); ok {
			bars = s.History()
		}
		err := report.GenerateReport(bt.output.ReportPath, &report.Data{
			Statistics: res.Statistic,
			Bars:       bars,
			Audit:      res.Audit,
			DarkMode:   bt.darkReport,
		})
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("report: %w", err))
		} else {
			log.Infof(bt.logger, "report written to %v", bt.output.ReportPath)
		}
	}
	if bt.output.PersistToDatabase {
		if err := bt.persist(ctx, res); err != nil {
			errs = errors.Join(errs, fmt.Errorf("persist: %w", err))
		}
	}
	return errs
}

func (bt *BackTest) persist(ctx context.Context, res *Result) error {
	if !bt.database.IsConnected() {
		return errDatabaseRequired
	}
	bt.m.Lock()
	sum := &run.Summary{
		ID:              res.ID,
		Nickname:        bt.MetaData.Nickname,
		Strategy:        bt.MetaData.Strategy,
		Status:          string(res.Status),
		Reason:          res.Reason,
		Started:         bt.MetaData.DateStarted,
		Finished:        time.Now(),
		DiscardedEvents: int64(res.Discarded),
	}
	bt.m.Unlock()
	if s := res.Statistic; s != nil {
		sum.InitialFunds = s.InitialFunds
		sum.FinalEquity = s.FinalEquity
		sum.TotalReturn = s.TotalReturn
		sum.MaxDrawdown = s.MaxDrawdown.DrawdownPercent
		sum.SharpeRatio = s.SharpeRatio
		sum.Fills = s.TotalFills
		sum.Rejections = s.TotalRejections
	}
	if err := run.Insert(ctx, bt.database, sum, res.EquityCurve, res.Audit); err != nil {
		return err
	}
	log.Infof(bt.logger, "run %v stored in the database", res.ID)
	return nil
}
