package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/data"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/slippage"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

var start = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Nickname: "test",
		StrategySettings: config.StrategySettings{
			Name: "momentum",
		},
		DataSettings: config.DataSettings{
			Interval: 24 * time.Hour,
		},
		PortfolioSettings: config.PortfolioSettings{
			InitialFunds: decimal.NewFromInt(100000),
			Sizing: config.Sizing{
				Method:   config.FixedQuantity,
				Quantity: decimal.NewFromInt(10),
			},
		},
		ExecutionSettings: config.ExecutionSettings{
			FillPrice: exchange.FillAtClose,
			Commission: commission.Settings{
				Model: commission.Flat,
				Flat:  decimal.NewFromInt(1),
			},
			Slippage: slippage.Settings{Model: slippage.None},
			Seed:     1337,
		},
	}
}

// bars returns one flat bar per close for the instrument, one day apart
func bars(instrument string, closes ...int64) []data.Bar {
	resp := make([]data.Bar, len(closes))
	for i := range closes {
		p := decimal.NewFromInt(closes[i])
		resp[i] = data.Bar{
			Instrument: instrument,
			Time:       start.AddDate(0, 0, i),
			Open:       p,
			High:       p,
			Low:        p,
			Close:      p,
			Volume:     decimal.NewFromInt(1000),
		}
	}
	return resp
}

func newStream(t *testing.T, b ...[]data.Bar) *data.Stream {
	t.Helper()
	var all []data.Bar
	for i := range b {
		all = append(all, b[i]...)
	}
	s, err := data.NewStream(all)
	require.NoError(t, err, "NewStream must not error")
	return s
}

func newBackTest(t *testing.T, cfg *config.Config, feed data.Feed) *BackTest {
	t.Helper()
	bt, err := NewFromFeed(cfg, feed, nil)
	require.NoError(t, err, "NewFromFeed must not error")
	return bt
}

// sliceFeed emits bars without any validation
type sliceFeed struct {
	bars []kline.Event
	i    int
	// onPull is called with the number of bars pulled so far
	onPull func(int)
}

func (s *sliceFeed) Next() (kline.Event, bool) {
	if s.onPull != nil {
		s.onPull(s.i)
	}
	if s.i >= len(s.bars) {
		return nil, false
	}
	s.i++
	return s.bars[s.i-1], true
}

func TestMomentumScenario(t *testing.T) {
	t.Parallel()
	bt := newBackTest(t, testConfig(), newStream(t, bars("AAPL", 100, 105, 103)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	assert.Equal(t, common.StatusCompleted, res.Status)
	assert.Zero(t, res.Discarded)

	snap := bt.Portfolio.Snapshot()
	assert.Equal(t, "98969", snap.Cash.String(), "cash should be debited 10 * 103 + 1")
	pos, ok := snap.Positions["AAPL"]
	require.True(t, ok, "position must exist")
	assert.Equal(t, "10", pos.Quantity.String())
	assert.Equal(t, "103", pos.AverageCost.String())

	require.Len(t, res.EquityCurve, 3, "there should be one equity entry per bar")
	assert.Equal(t, "100000", res.EquityCurve[0].Equity.String())
	assert.Equal(t, "100000", res.EquityCurve[1].Equity.String())
	assert.Equal(t, "99999", res.EquityCurve[2].Equity.String())

	require.Len(t, res.Audit, 1)
	fillRecord := res.Audit[0]
	assert.Equal(t, common.Filled, fillRecord.Status)
	assert.Equal(t, common.Buy, fillRecord.Side)
	assert.Equal(t, start.AddDate(0, 0, 2), fillRecord.Time, "fill must use the bar after the order")
	assert.Equal(t, "103", fillRecord.Price.String())
	assert.Equal(t, "1", fillRecord.Commission.String())

	require.NotNil(t, res.Statistic)
	assert.Equal(t, int64(1), res.Statistic.TotalFills)
	assert.Equal(t, int64(1), res.Statistic.TotalBuyOrders)
}

func TestOutstandingOrdersAreCancelledAtEnd(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.StrategySettings.CustomSettings = map[string]any{"exit-on-decline": true}
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 105, 103)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	require.Len(t, res.Audit, 2)
	assert.Equal(t, common.Filled, res.Audit[0].Status)
	assert.Equal(t, common.Cancelled, res.Audit[1].Status, "the exit order placed on the last bar can never fill")
	assert.Equal(t, common.Sell, res.Audit[1].Side)
	assert.Empty(t, bt.Portfolio.Snapshot().PendingQuantity["AAPL"], "cancelled orders should release their pending quantity")
}

func TestLimitOrdersExpireAtEnd(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.PortfolioSettings.OrderType = "limit"
	cfg.PortfolioSettings.LimitOffsetBasisPoints = decimal.NewFromInt(1000)
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 105, 103)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	require.Len(t, res.Audit, 1)
	expired := res.Audit[0]
	assert.Equal(t, common.Expired, expired.Status, "a limit of 94.5 is never reached")
	assert.Equal(t, common.Limit, expired.OrderType)
	assert.Equal(t, common.Buy, expired.Side)
	assert.Contains(t, expired.Reason, "94.5")
	snap := bt.Portfolio.Snapshot()
	assert.Equal(t, "100000", snap.Cash.String())
	assert.Empty(t, snap.Positions)
	assert.True(t, snap.PendingQuantity["AAPL"].IsZero(), "expired orders should release their pending quantity")
}

func TestExitCannotShortAgainstAnUnfilledLimit(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.StrategySettings.CustomSettings = map[string]any{"exit-on-decline": true}
	cfg.PortfolioSettings.OrderType = "limit"
	cfg.PortfolioSettings.LimitOffsetBasisPoints = decimal.NewFromInt(1000)
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 105, 100, 100)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	require.Len(t, res.Audit, 2)
	assert.Equal(t, common.Rejected, res.Audit[0].Status)
	assert.Equal(t, common.Exit, res.Audit[0].Direction)
	assert.Contains(t, res.Audit[0].Reason, "pending buys do not fill")
	assert.Equal(t, common.Expired, res.Audit[1].Status)
	snap := bt.Portfolio.Snapshot()
	assert.Equal(t, "100000", snap.Cash.String())
	assert.Empty(t, snap.Positions, "the portfolio must never go short when shorting is disabled")
}

func TestGapsCannotOverdrawCash(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.PortfolioSettings.InitialFunds = decimal.NewFromInt(1051)
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 105, 110)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	require.Len(t, res.Audit, 2)
	assert.Equal(t, common.Rejected, res.Audit[0].Status, "the buy costs 1101 at the gap")
	assert.Equal(t, "110", res.Audit[0].Price.String())
	assert.Contains(t, res.Audit[0].Reason, "at fill")
	assert.Equal(t, common.Rejected, res.Audit[1].Status, "the next signal cannot be afforded either")
	snap := bt.Portfolio.Snapshot()
	assert.Equal(t, "1051", snap.Cash.String())
	assert.False(t, snap.Cash.IsNegative())
	assert.Empty(t, snap.Positions)
}

func TestBarsArePulledOnlyWhenTheQueueIsEmpty(t *testing.T) {
	t.Parallel()
	s := newStream(t, bars("AAPL", 100, 101, 102, 103, 104), bars("MSFT", 50, 49, 51, 52, 50))
	feed := &sliceFeed{bars: s.List()}
	bt := newBackTest(t, testConfig(), feed)
	var nonEmptyPulls int
	feed.onPull = func(int) {
		if bt.EventQueue.Len() != 0 {
			nonEmptyPulls++
		}
	}
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	assert.Zero(t, nonEmptyPulls, "every derived event must be processed before the next bar")
	assert.Equal(t, 10, feed.i, "the feed should be pulled until exhausted")
	assert.Positive(t, res.ProcessedEvents)

	for i := range res.Audit {
		if res.Audit[i].Status != common.Filled {
			continue
		}
		assert.True(t, res.Audit[i].Time.After(start), "no fill can use the first bar")
	}
	for i := 1; i < len(res.Audit); i++ {
		assert.False(t, res.Audit[i].Time.Before(res.Audit[i-1].Time), "audit records must be in causal order")
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.StrategySettings.CustomSettings = map[string]any{"exit-on-decline": true}
	cfg.ExecutionSettings.FillPrice = exchange.FillAtOpen
	cfg.ExecutionSettings.Slippage = slippage.Settings{
		Model:              slippage.Random,
		MinimumBasisPoints: decimal.NewFromInt(1),
		MaximumBasisPoints: decimal.NewFromInt(50),
	}
	var outputs [2][]byte
	for i := range outputs {
		dir := t.TempDir()
		cfg.OutputSettings = config.OutputSettings{
			EquityLogPath: filepath.Join(dir, "equity.jsonl"),
			AuditLogPath:  filepath.Join(dir, "audit.jsonl"),
		}
		up := bars("AAPL", 100, 102, 101, 104, 106, 103, 107)
		for j := range up {
			up[j].High = up[j].High.Add(decimal.NewFromInt(2))
			up[j].Low = up[j].Low.Sub(decimal.NewFromInt(2))
		}
		bt := newBackTest(t, cfg, newStream(t, up, bars("MSFT", 50, 51, 49, 52, 53, 50, 55)))
		_, err := bt.Run(context.Background())
		require.NoError(t, err, "Run must not error")
		equity, err := os.ReadFile(cfg.OutputSettings.EquityLogPath)
		require.NoError(t, err, "ReadFile must not error")
		audit, err := os.ReadFile(cfg.OutputSettings.AuditLogPath)
		require.NoError(t, err, "ReadFile must not error")
		outputs[i] = append(equity, audit...)
	}
	assert.NotEmpty(t, outputs[0])
	assert.Equal(t, string(outputs[0]), string(outputs[1]), "identical inputs must produce identical output")
}

func TestConservation(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.StrategySettings.CustomSettings = map[string]any{"exit-on-decline": true}
	cfg.ExecutionSettings.Commission = commission.Settings{Model: commission.Percentage, Rate: decimal.RequireFromString("0.001")}
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 102, 101, 104, 106, 103, 107, 108), bars("MSFT", 50, 51, 49, 52, 53, 50, 55, 54)))
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")

	cash := cfg.PortfolioSettings.InitialFunds
	for i := range res.Audit {
		r := res.Audit[i]
		if r.Status != common.Filled {
			continue
		}
		cash = cash.Sub(r.Price.Mul(r.Quantity).Mul(r.Side.Sign())).Sub(r.Commission)
	}
	snap := bt.Portfolio.Snapshot()
	assert.True(t, cash.Equal(snap.Cash), "cash %v should equal initial funds less trades %v", snap.Cash, cash)

	marketValue := decimal.Zero
	for _, p := range snap.Positions {
		marketValue = marketValue.Add(p.Quantity.Mul(p.LastPrice))
	}
	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.True(t, last.Equity.Equal(snap.Cash.Add(marketValue)), "equity must be cash plus market value")
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bt := newBackTest(t, testConfig(), newStream(t, bars("AAPL", 100, 105, 103)))
	res, err := bt.Run(ctx)
	require.NoError(t, err, "Run must not error when cancelled")
	assert.Equal(t, common.StatusCancelled, res.Status)
	assert.Zero(t, res.ProcessedEvents)
	assert.Empty(t, res.EquityCurve)
	assert.True(t, bt.HasRan())
	assert.False(t, bt.IsRunning())
}

func TestStopDiscardsQueuedEvents(t *testing.T) {
	t.Parallel()
	s := newStream(t, bars("AAPL", 100, 105, 103, 104))
	feed := &sliceFeed{bars: s.List()}
	bt := newBackTest(t, testConfig(), feed)
	feed.onPull = func(pulled int) {
		if pulled == 2 {
			assert.True(t, bt.IsRunning())
			assert.NoError(t, bt.Stop(), "Stop should not error")
			assert.NoError(t, bt.Stop(), "Stop should be safe to call twice")
		}
	}
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	assert.Equal(t, common.StatusCancelled, res.Status)
	assert.Equal(t, 1, res.Discarded, "the bar pulled before stopping should be discarded")
	assert.Len(t, res.EquityCurve, 2, "partial results should be kept")
	require.Len(t, res.Audit, 1)
	assert.Equal(t, common.Cancelled, res.Audit[0].Status, "the unfilled order should be cancelled")
}

func TestDataIntegrityFailureKeepsPartialResults(t *testing.T) {
	t.Parallel()
	p := decimal.NewFromInt(100)
	feed := &sliceFeed{bars: []kline.Event{
		kline.New(1, start, "AAPL", p, p, p, p, p),
		kline.New(2, start.AddDate(0, 0, 1), "AAPL", p, p, p, p, p),
		kline.New(3, start, "AAPL", p, p, p, p, p),
	}}
	dir := t.TempDir()
	cfg := testConfig()
	cfg.OutputSettings.EquityLogPath = filepath.Join(dir, "equity.jsonl")
	bt := newBackTest(t, cfg, feed)
	res, err := bt.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrDataIntegrity)
	require.NotNil(t, res, "failed runs must return a result")
	assert.Equal(t, common.StatusFailed, res.Status)
	assert.NotEmpty(t, res.Reason)
	assert.Len(t, res.EquityCurve, 2)
	assert.FileExists(t, cfg.OutputSettings.EquityLogPath, "output should be written for failed runs")

	got, err := bt.GetResult()
	require.NoError(t, err, "GetResult must not error")
	assert.Same(t, res, got)
	assert.Equal(t, common.StatusFailed, bt.GenerateSummary().Status)
}

func TestRunStates(t *testing.T) {
	t.Parallel()
	_, err := New().Run(context.Background())
	assert.ErrorIs(t, err, errNotSetup)

	var nilBT *BackTest
	_, err = nilBT.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrNilPointer)
	assert.ErrorIs(t, nilBT.Stop(), common.ErrNilPointer)
	assert.False(t, nilBT.IsRunning())

	bt := newBackTest(t, testConfig(), newStream(t, bars("AAPL", 100, 105)))
	_, err = bt.GetResult()
	assert.ErrorIs(t, err, errRunHasNotRan)
	_, err = bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	_, err = bt.Run(context.Background())
	assert.ErrorIs(t, err, errAlreadyRan)
	assert.True(t, bt.MatchesID(bt.MetaData.ID))
	assert.False(t, bt.MatchesID(""))
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	_, err := NewFromConfig(context.Background(), nil, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	cfg := testConfig()
	_, err = NewFromConfig(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration, "a config without data should not validate")

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "AAPL.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("date,open,high,low,close,volume\n2021-01-04,100,100,100,100,10\n2021-01-05,105,105,105,105,10\n2021-01-06,103,103,103,103,10\n"), 0o600), "WriteFile must not error")
	cfg.DataSettings.CSVData = []config.CSVData{{Instrument: "AAPL", Path: csvPath}}

	cfg.OutputSettings.PersistToDatabase = true
	_, err = NewFromConfig(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, errDatabaseRequired)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	cfg.OutputSettings = config.OutputSettings{
		EquityLogPath: filepath.Join(dir, "out", "equity.jsonl"),
		AuditLogPath:  filepath.Join(dir, "out", "audit.jsonl"),
		ReportPath:    filepath.Join(dir, "out", "report.html"),
	}
	bt, err := NewFromConfig(context.Background(), cfg, &RunSettings{DarkReport: true})
	require.NoError(t, err, "NewFromConfig must not error")
	assert.NotEmpty(t, bt.MetaData.ID)
	assert.Equal(t, "momentum", bt.MetaData.Strategy)
	res, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	assert.Equal(t, "99999", res.EquityCurve[len(res.EquityCurve)-1].Equity.String())
	assert.FileExists(t, cfg.OutputSettings.EquityLogPath)
	assert.FileExists(t, cfg.OutputSettings.AuditLogPath)
	assert.FileExists(t, cfg.OutputSettings.ReportPath)
}

func TestNewFromFeed(t *testing.T) {
	t.Parallel()
	_, err := NewFromFeed(nil, &sliceFeed{}, nil)
	assert.ErrorIs(t, err, errNilConfig)
	_, err = NewFromFeed(testConfig(), nil, nil)
	assert.ErrorIs(t, err, errNilData)

	cfg := testConfig()
	cfg.StrategySettings.Name = "moonshot"
	_, err = NewFromFeed(cfg, &sliceFeed{}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	cfg = testConfig()
	cfg.ExecutionSettings.FillPrice = "vwap"
	_, err = NewFromFeed(cfg, &sliceFeed{}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestOutputErrorsAreReturned(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600), "WriteFile must not error")
	cfg := testConfig()
	cfg.OutputSettings.AuditLogPath = filepath.Join(blocker, "audit.jsonl")
	bt := newBackTest(t, cfg, newStream(t, bars("AAPL", 100, 105, 103)))
	res, err := bt.Run(context.Background())
	assert.Error(t, err, "an unwritable output path should be returned")
	require.NotNil(t, res)
	assert.Equal(t, common.StatusCompleted, res.Status, "output failures do not change the run outcome")
}

func TestRunAll(t *testing.T) {
	t.Parallel()
	_, err := RunAll(context.Background(), nil, 0)
	assert.ErrorIs(t, err, errInvalidWorkerCount)
	_, err = RunAll(context.Background(), []*BackTest{nil}, 1)
	assert.ErrorIs(t, err, common.ErrNilPointer)

	runs := make([]*BackTest, 4)
	for i := range runs {
		runs[i] = newBackTest(t, testConfig(), newStream(t, bars("AAPL", 100, 105, 103)))
	}
	p := decimal.NewFromInt(1)
	runs = append(runs, newBackTest(t, testConfig(), &sliceFeed{bars: []kline.Event{
		kline.New(1, start, "MSFT", p, p, p, p, p),
		kline.New(2, start, "AAPL", p, p, p, p, p),
	}}))
	results, err := RunAll(context.Background(), runs, 2)
	assert.ErrorIs(t, err, common.ErrDataIntegrity)
	require.Len(t, results, len(runs))
	for i := 0; i < 4; i++ {
		require.NotNil(t, results[i])
		assert.Equal(t, common.StatusCompleted, results[i].Status)
		assert.Equal(t, runs[i].MetaData.ID, results[i].ID)
		assert.Equal(t, "99999", results[i].EquityCurve[2].Equity.String(), "independent runs must not share state")
	}
	assert.Equal(t, common.StatusFailed, results[4].Status)
}

func TestReportDataFromStream(t *testing.T) {
	t.Parallel()
	s := newStream(t, bars("AAPL", 100, 105, 103))
	bt := newBackTest(t, testConfig(), s)
	_, err := bt.Run(context.Background())
	require.NoError(t, err, "Run must not error")
	assert.Len(t, s.History(), 3, "the report should be able to draw every bar processed")
}
