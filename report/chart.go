package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const axisTimeFormat = "2006-01-02 15:04"

// GenerateReport renders the equity curve and the bars of every instrument,
// annotated with fills, to a single HTML page
func GenerateReport(path string, d *Data) (err error) {
	if path == "" {
		return errNoOutputPath
	}
	if d == nil || d.Statistics == nil {
		return errNoStatistics
	}
	page := components.NewPage()
	page.PageTitle = title(d.Statistics.StrategyName, d.Statistics.StrategyNickname)
	page.AddCharts(createEquityChart(d))
	for _, instrument := range instruments(d.Bars) {
		page.AddCharts(createInstrumentChart(d, instrument))
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return page.Render(f)
}

// title formats headings consistently regardless of how the strategy was named
func title(parts ...string) string {
	caser := cases.Title(language.English)
	var resp string
	for i := range parts {
		if parts[i] == "" {
			continue
		}
		if resp != "" {
			resp += " - "
		}
		resp += caser.String(parts[i])
	}
	return resp
}

func initOpts(d *Data) opts.Initialization {
	theme := types.ThemeWesteros
	if d.DarkMode {
		theme = types.ThemeChalk
	}
	return opts.Initialization{
		PageTitle: title(d.Statistics.StrategyName),
		Theme:     theme,
		Width:     chartWidth,
		Height:    chartHeight,
	}
}

func createEquityChart(d *Data) *charts.Line {
	s := d.Statistics
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(d)),
		charts.WithTitleOpts(opts.Title{
			Title: title(s.StrategyName, "equity"),
			Subtitle: fmt.Sprintf("Total return %v%% | Max drawdown %v%% | Sharpe %v",
				s.TotalReturn.StringFixed(2),
				s.MaxDrawdown.DrawdownPercent.StringFixed(2),
				s.SharpeRatio.StringFixed(4)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	xAxis := make([]string, len(s.EquityCurve))
	equity := make([]opts.LineData, len(s.EquityCurve))
	cash := make([]opts.LineData, len(s.EquityCurve))
	for i := range s.EquityCurve {
		xAxis[i] = s.EquityCurve[i].Time.Format(axisTimeFormat)
		equity[i] = opts.LineData{Value: s.EquityCurve[i].Equity.InexactFloat64()}
		cash[i] = opts.LineData{Value: s.EquityCurve[i].Cash.InexactFloat64()}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", equity)
	line.AddSeries("Cash", cash)
	return line
}

// createInstrumentChart draws the bars of an instrument with buys and sells
// overlaid at the price they filled
func createInstrumentChart(d *Data, instrument string) *charts.Kline {
	var bars []kline.Event
	for i := range d.Bars {
		if d.Bars[i].GetInstrument() == instrument {
			bars = append(bars, d.Bars[i])
		}
	}
	buys := make(map[time.Time]float64)
	sells := make(map[time.Time]float64)
	for i := range d.Audit {
		r := &d.Audit[i]
		if r.Instrument != instrument || r.Status != common.Filled {
			continue
		}
		if r.Side == common.Buy {
			buys[r.Time] = r.Price.InexactFloat64()
		} else {
			sells[r.Time] = r.Price.InexactFloat64()
		}
	}

	xAxis := make([]string, len(bars))
	candles := make([]opts.KlineData, len(bars))
	buyPoints := make([]opts.ScatterData, len(bars))
	sellPoints := make([]opts.ScatterData, len(bars))
	for i := range bars {
		t := bars[i].GetTime()
		xAxis[i] = t.Format(axisTimeFormat)
		candles[i] = opts.KlineData{Value: [4]float64{
			bars[i].GetOpenPrice().InexactFloat64(),
			bars[i].GetClosePrice().InexactFloat64(),
			bars[i].GetLowPrice().InexactFloat64(),
			bars[i].GetHighPrice().InexactFloat64(),
		}}
		buyPoints[i] = opts.ScatterData{Value: noValue}
		if p, ok := buys[t]; ok {
			buyPoints[i] = opts.ScatterData{Value: p, Symbol: "triangle", SymbolSize: 12}
		}
		sellPoints[i] = opts.ScatterData{Value: noValue}
		if p, ok := sells[t]; ok {
			sellPoints[i] = opts.ScatterData{Value: p, Symbol: "pin", SymbolSize: 16}
		}
	}

	k := charts.NewKLine()
	k.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(d)),
		charts.WithTitleOpts(opts.Title{Title: instrument}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	k.SetXAxis(xAxis)
	k.AddSeries(instrument, candles)

	fills := charts.NewScatter()
	fills.SetXAxis(xAxis)
	fills.AddSeries("Buy", buyPoints)
	fills.AddSeries("Sell", sellPoints)
	k.Overlap(fills)
	return k
}

func instruments(bars []kline.Event) []string {
	seen := make(map[string]struct{})
	var resp []string
	for i := range bars {
		if _, ok := seen[bars[i].GetInstrument()]; ok {
			continue
		}
		seen[bars[i].GetInstrument()] = struct{}{}
		resp = append(resp, bars[i].GetInstrument())
	}
	sort.Strings(resp)
	return resp
}
