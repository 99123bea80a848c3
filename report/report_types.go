package report

import (
	"errors"

	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/statistics"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
)

const (
	chartWidth  = "1200px"
	chartHeight = "500px"
	// markers are drawn on an empty category when nothing traded
	noValue = "-"
)

var (
	errNoOutputPath = errors.New("no output path provided")
	errNoStatistics = errors.New("report requires calculated statistics")
)

// Data holds everything needed to render the HTML report of a run
type Data struct {
	Statistics *statistics.Statistic
	Bars       []kline.Event
	Audit      []compliance.Record
	DarkMode   bool
}
