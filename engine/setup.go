package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/data"
	"github.com/thrasher-corp/gct-backtester/data/kline/csv"
	dbloader "github.com/thrasher-corp/gct-backtester/data/kline/database"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/slippage"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/risk"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/size"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/statistics"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies"
	"github.com/thrasher-corp/gct-backtester/log"
)

// NewFromConfig takes a strategy config and configures a backtester variable to run
func NewFromConfig(ctx context.Context, cfg *config.Config, rs *RunSettings) (*BackTest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errNilConfig)
	}
	if rs == nil {
		rs = &RunSettings{}
	}
	log.Infoln(log.ConfigMgr, "loading config...")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	usesAppDatabase := cfg.DataSettings.DatabaseData != nil && cfg.DataSettings.DatabaseData.ConfigOverride == nil
	if (cfg.OutputSettings.PersistToDatabase || usesAppDatabase) && !rs.Database.IsConnected() {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errDatabaseRequired)
	}
	feed, err := loadData(ctx, cfg, rs)
	if err != nil {
		return nil, err
	}
	return setup(cfg, feed, rs)
}

// NewFromFeed configures a backtest to run against an already loaded feed.
// The data settings of the config are not used
func NewFromFeed(cfg *config.Config, feed data.Feed, rs *RunSettings) (*BackTest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errNilConfig)
	}
	if feed == nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errNilData)
	}
	if rs == nil {
		rs = &RunSettings{}
	}
	if cfg.OutputSettings.PersistToDatabase && !rs.Database.IsConnected() {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errDatabaseRequired)
	}
	return setup(cfg, feed, rs)
}

func setup(cfg *config.Config, feed data.Feed, rs *RunSettings) (*BackTest, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	bt := New()
	bt.MetaData.ID = id.String()
	bt.MetaData.Nickname = cfg.Nickname
	bt.logger = log.Scoped(log.BackTester, bt.MetaData.ID)
	bt.Feed = feed
	bt.output = cfg.OutputSettings
	bt.database = rs.Database
	bt.darkReport = rs.DarkReport

	bt.Strategy, err = strategies.LoadStrategyByName(cfg.StrategySettings.Name)
	if err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	if len(cfg.StrategySettings.CustomSettings) > 0 {
		if err = bt.Strategy.SetCustomSettings(cfg.StrategySettings.CustomSettings); err != nil {
			return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
		}
	}
	bt.MetaData.Strategy = bt.Strategy.Name()

	fee, err := commission.New(cfg.ExecutionSettings.Commission)
	if err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	// each run owns its random source so identical seeds replay identically
	slip, err := slippage.New(cfg.ExecutionSettings.Slippage, rand.New(rand.NewSource(cfg.ExecutionSettings.Seed))) //nolint:gosec // simulation randomness
	if err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	ps := &cfg.PortfolioSettings
	p, err := portfolio.Setup(ps.InitialFunds, size.New(ps), &risk.Risk{
		AllowShort:           ps.AllowShort,
		AllowMargin:          ps.AllowMargin,
		MinimumSize:          ps.Limits.MinimumSize,
		MaximumHoldingRatio:  ps.MaximumHoldingRatio,
		MaximumGrossExposure: ps.MaximumGrossExposure,
	}, fee, bt.compliance, log.Scoped(log.Portfolio, bt.MetaData.ID))
	if err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	orderType, err := common.ParseOrderType(ps.OrderType)
	if err != nil {
		return nil, err
	}
	if err = p.SetOrderType(orderType, ps.LimitOffsetBasisPoints); err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	bt.Portfolio = p

	// the portfolio pays for buy fills so gaps and slippage cannot overdraw cash
	bt.Exchange, err = exchange.Setup(&exchange.Settings{
		FillPrice:  cfg.ExecutionSettings.FillPrice,
		Commission: fee,
		Slippage:   slip,
		Funds:      p,
	}, bt.compliance, log.Scoped(log.Execution, bt.MetaData.ID))
	if err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}

	bt.Statistic = statistics.New(bt.Strategy.Name(), cfg.Nickname, cfg.Goal, cfg.DataSettings.Interval)
	bt.MetaData.DateLoaded = time.Now()
	log.Infof(bt.logger, "loaded %v strategy run %v", bt.MetaData.Strategy, bt.MetaData.ID)
	return bt, nil
}

// loadData builds a loader per instrument and merges what they return into
// a single stream
func loadData(ctx context.Context, cfg *config.Config, rs *RunSettings) (*data.Stream, error) {
	d := &cfg.DataSettings
	var loaders []data.Loader
	for i := range d.CSVData {
		loaders = append(loaders, &csv.Loader{
			Instrument: strings.TrimSpace(d.CSVData[i].Instrument),
			Path:       d.CSVData[i].Path,
			Start:      d.StartDate,
			End:        d.EndDate,
		})
	}
	if d.DatabaseData != nil {
		db := rs.Database
		if d.DatabaseData.ConfigOverride != nil {
			override, err := database.Open(ctx, d.DatabaseData.ConfigOverride, rs.DataDirectory)
			if err != nil {
				return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
			}
			defer func() {
				if err := override.CloseConnection(); err != nil {
					log.Errorf(log.Database, "could not close database override: %v", err)
				}
			}()
			db = override
		}
		for i := range d.DatabaseData.Instruments {
			loaders = append(loaders, &dbloader.Loader{
				DB:         db,
				Instrument: d.DatabaseData.Instruments[i],
				Interval:   d.Interval,
				Start:      d.StartDate,
				End:        d.EndDate,
			})
		}
	}
	stream, err := data.Load(ctx, loaders...)
	if err != nil {
		if errors.Is(err, common.ErrDataIntegrity) {
			return nil, err
		}
		return nil, fmt.Errorf("could not load data: %w", err)
	}
	log.Infof(log.Data, "loaded %d bars across %d instruments", stream.Len(), len(stream.Instruments()))
	return stream, nil
}
