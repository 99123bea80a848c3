package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/statistics"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

var start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestWriteEquityLog(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "equity.jsonl")
	equity := []holdings.Equity{
		{Time: start, Offset: 1, Cash: decimal.NewFromInt(100), Equity: decimal.NewFromInt(100)},
		{Time: start.AddDate(0, 0, 1), Offset: 2, Cash: decimal.NewFromInt(50), MarketValue: decimal.NewFromFloat(52.5), Equity: decimal.NewFromFloat(102.5)},
	}
	require.NoError(t, WriteEquityLog(path, equity), "WriteEquityLog must not error")
	b, err := os.ReadFile(path)
	require.NoError(t, err, "ReadFile must not error")
	expected := `{"timestamp":"2020-01-01T00:00:00Z","cash":"100","market-value":"0","equity":"100"}` + "\n" +
		`{"timestamp":"2020-01-02T00:00:00Z","cash":"50","market-value":"52.5","equity":"102.5"}` + "\n"
	assert.Equal(t, expected, string(b))

	require.NoError(t, WriteEquityLog(path, equity[:1]), "WriteEquityLog must not error")
	b, err = os.ReadFile(path)
	require.NoError(t, err, "ReadFile must not error")
	assert.Equal(t, 1, strings.Count(string(b), "\n"), "existing files should be truncated")

	assert.ErrorIs(t, WriteEquityLog("", equity), errNoOutputPath)
}

func TestWriteAuditLog(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	records := []compliance.Record{
		{
			Time:       start,
			Offset:     2,
			Status:     common.Filled,
			Source:     compliance.SourceExecution,
			Instrument: "AAPL",
			OrderID:    "abc",
			Side:       common.Buy,
			OrderType:  common.Market,
			Quantity:   decimal.NewFromInt(10),
			Price:      decimal.NewFromInt(103),
			Commission: decimal.NewFromInt(1),
		},
		{
			Time:       start,
			Offset:     3,
			Status:     common.Rejected,
			Source:     compliance.SourcePortfolio,
			Instrument: "AAPL",
			Direction:  common.Short,
			Reason:     "shorting is not allowed",
		},
	}
	require.NoError(t, WriteAuditLog(path, records), "WriteAuditLog must not error")
	b, err := os.ReadFile(path)
	require.NoError(t, err, "ReadFile must not error")
	expected := `{"timestamp":"2020-01-01T00:00:00Z","offset":2,"status":"FILLED","source":"execution","instrument":"AAPL","order-id":"abc","side":"BUY","order-type":"MARKET","quantity":"10","price":"103","commission":"1","slippage":"0"}` + "\n" +
		`{"timestamp":"2020-01-01T00:00:00Z","offset":3,"status":"REJECTED","source":"portfolio","instrument":"AAPL","direction":"SHORT","quantity":"0","price":"0","commission":"0","slippage":"0","reason":"shorting is not allowed"}` + "\n"
	assert.Equal(t, expected, string(b))

	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, WriteAuditLog(empty, nil), "WriteAuditLog must not error")
	b, err = os.ReadFile(empty)
	require.NoError(t, err, "ReadFile must not error")
	assert.Empty(t, b)
}

func TestGenerateReport(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, GenerateReport("", &Data{}), errNoOutputPath)
	assert.ErrorIs(t, GenerateReport("report.html", nil), errNoStatistics)
	assert.ErrorIs(t, GenerateReport("report.html", &Data{}), errNoStatistics)

	var bars []kline.Event
	var curve []holdings.Equity
	for i, c := range []int64{100, 105, 103} {
		tt := start.AddDate(0, 0, i)
		p := decimal.NewFromInt(c)
		bars = append(bars,
			kline.New(int64(i+1), tt, "MSFT", p, p.Add(decimal.NewFromInt(1)), p.Sub(decimal.NewFromInt(1)), p, decimal.NewFromInt(10)),
			kline.New(int64(i+1), tt, "AAPL", p, p, p, p, decimal.Zero))
		curve = append(curve, holdings.Equity{Time: tt, Cash: decimal.NewFromInt(100000), Equity: decimal.NewFromInt(100000 + c)})
	}
	audit := []compliance.Record{
		{Time: start.AddDate(0, 0, 2), Status: common.Filled, Instrument: "AAPL", Side: common.Buy, Price: decimal.NewFromInt(103)},
		{Time: start.AddDate(0, 0, 1), Status: common.Rejected, Instrument: "AAPL"},
	}
	s := statistics.New("momentum", "daily", "", time.Hour*24)
	require.NoError(t, s.CalculateAllResults(&portfolio.Snapshot{
		InitialFunds: decimal.NewFromInt(100000),
		Cash:         decimal.NewFromInt(100000),
		EquityCurve:  curve,
	}, audit), "CalculateAllResults must not error")

	for _, dark := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "out", "report.html")
		require.NoError(t, GenerateReport(path, &Data{Statistics: s, Bars: bars, Audit: audit, DarkMode: dark}), "GenerateReport must not error")
		b, err := os.ReadFile(path)
		require.NoError(t, err, "ReadFile must not error")
		html := string(b)
		assert.Contains(t, html, "Momentum - Daily")
		assert.Contains(t, html, "AAPL")
		assert.Contains(t, html, "MSFT")
		if dark {
			assert.Contains(t, html, "chalk")
		} else {
			assert.Contains(t, html, "westeros")
		}
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Sma Crossover - Slow", title("sma crossover", "", "slow"))
	assert.Empty(t, title())
}

func TestInstruments(t *testing.T) {
	t.Parallel()
	p := decimal.NewFromInt(1)
	bars := []kline.Event{
		kline.New(1, start, "MSFT", p, p, p, p, p),
		kline.New(1, start, "AAPL", p, p, p, p, p),
		kline.New(2, start.Add(time.Hour), "MSFT", p, p, p, p, p),
	}
	assert.Equal(t, []string{"AAPL", "MSFT"}, instruments(bars))
}
