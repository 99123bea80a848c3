package statistics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	gctmath "github.com/thrasher-corp/gct-backtester/common/math"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/log"
)

const year = 365 * 24 * time.Hour

// fSIL shorthand wrapper for FitStringToLimit
func fSIL(str string, limit int) string {
	return common.FitStringToLimit(str, " ", limit, true)
}

// New creates a statistic for a named strategy
func New(strategyName, nickname, goal string, interval time.Duration) *Statistic {
	return &Statistic{
		StrategyName:     strategyName,
		StrategyNickname: nickname,
		StrategyGoal:     goal,
		Interval:         interval,
	}
}

// Reset returns the struct to defaults
func (s *Statistic) Reset() {
	*s = Statistic{
		StrategyName:     s.StrategyName,
		StrategyNickname: s.StrategyNickname,
		StrategyGoal:     s.StrategyGoal,
		Interval:         s.Interval,
	}
}

// CalculateAllResults summarises a run from the final portfolio snapshot
// and the audit records. Partial runs are summarised the same way
func (s *Statistic) CalculateAllResults(snap *portfolio.Snapshot, records []compliance.Record) error {
	if s == nil {
		return common.ErrNilPointer
	}
	if snap == nil {
		return common.ErrNilArguments
	}
	if s.computed {
		return errAlreadyComputed
	}
	if !snap.InitialFunds.IsPositive() {
		return errNoInitialFunds
	}
	s.InitialFunds = snap.InitialFunds
	s.FinalCash = snap.Cash
	s.FinalEquity = snap.InitialFunds
	s.EquityCurve = snap.EquityCurve
	s.TotalCommission = decimal.Zero
	s.TotalSlippage = decimal.Zero
	s.RealisedPNL = decimal.Zero
	s.UnrealisedPNL = decimal.Zero

	s.calculateOrderStatistics(records)
	s.calculateInstrumentStatistics(snap.Positions)
	if len(snap.EquityCurve) > 0 {
		s.StartDate = snap.EquityCurve[0].Time
		s.EndDate = snap.EquityCurve[len(snap.EquityCurve)-1].Time
		s.FinalEquity = snap.EquityCurve[len(snap.EquityCurve)-1].Equity
		if err := s.calculateEquityStatistics(); err != nil {
			return err
		}
	}
	s.TotalReturn = gctmath.PercentageChange(s.InitialFunds, s.FinalEquity)
	s.IsStrategyProfitable = s.FinalEquity.GreaterThan(s.InitialFunds)
	s.computed = true
	return nil
}

func (s *Statistic) calculateOrderStatistics(records []compliance.Record) {
	s.TotalBuyOrders, s.TotalSellOrders = 0, 0
	s.TotalFills, s.TotalRejections, s.TotalExpired, s.TotalCancelled = 0, 0, 0, 0
	for i := range records {
		switch records[i].Status {
		case common.Filled:
			s.TotalFills++
			if records[i].Side == common.Buy {
				s.TotalBuyOrders++
			} else {
				s.TotalSellOrders++
			}
			s.TotalCommission = s.TotalCommission.Add(records[i].Commission)
			s.TotalSlippage = s.TotalSlippage.Add(records[i].Slippage.Mul(records[i].Quantity).Abs())
		case common.Rejected:
			s.TotalRejections++
		case common.Expired:
			s.TotalExpired++
		case common.Cancelled:
			s.TotalCancelled++
		}
	}
}

func (s *Statistic) calculateInstrumentStatistics(positions map[string]holdings.Position) {
	instruments := make([]string, 0, len(positions))
	for k := range positions {
		instruments = append(instruments, k)
	}
	sort.Strings(instruments)
	s.InstrumentStatistics = make([]InstrumentStatistic, 0, len(instruments))
	for _, instrument := range instruments {
		p := positions[instrument]
		unrealised := p.UnrealisedPNL()
		s.RealisedPNL = s.RealisedPNL.Add(p.RealisedPNL)
		s.UnrealisedPNL = s.UnrealisedPNL.Add(unrealised)
		s.InstrumentStatistics = append(s.InstrumentStatistics, InstrumentStatistic{
			Instrument:      instrument,
			FinalQuantity:   p.Quantity,
			AverageCost:     p.AverageCost,
			LastPrice:       p.LastPrice,
			BoughtQuantity:  p.BoughtQuantity,
			SoldQuantity:    p.SoldQuantity,
			RealisedPNL:     p.RealisedPNL,
			UnrealisedPNL:   unrealised,
			TotalCommission: p.TotalCommission,
		})
	}
}

// calculateEquityStatistics derives drawdown and ratios from the equity
// curve. Ratios which cannot be calculated for a short or flat curve are
// left at zero
func (s *Statistic) calculateEquityStatistics() error {
	values := make([]decimal.Decimal, len(s.EquityCurve))
	for i := range s.EquityCurve {
		values[i] = s.EquityCurve[i].Equity
	}
	var err error
	s.MaxDrawdown, err = CalculateBiggestDrawdown(s.EquityCurve)
	if err != nil {
		return err
	}
	if len(values) < 2 {
		return nil
	}
	returns := make([]decimal.Decimal, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1].IsZero() {
			continue
		}
		returns = append(returns, values[i].Sub(values[i-1]).Div(values[i-1]))
	}
	s.SharpeRatio, err = gctmath.SharpeRatio(returns, decimal.Zero)
	if err != nil {
		log.Debugf(log.Statistics, "sharpe ratio not calculated: %v", err)
		s.SharpeRatio = decimal.Zero
	}
	if s.Interval > 0 {
		periodsPerYear := decimal.NewFromFloat(float64(year) / float64(s.Interval))
		s.AnnualisedSharpeRatio = s.SharpeRatio.Mul(decimal.NewFromFloat(math.Sqrt(periodsPerYear.InexactFloat64()))).Round(8)
		s.CompoundAnnualGrowthRate, err = gctmath.CompoundAnnualGrowthRate(values[0], values[len(values)-1], periodsPerYear, decimal.NewFromInt(int64(len(values)-1)))
		if err != nil {
			log.Debugf(log.Statistics, "compound annual growth rate not calculated: %v", err)
			s.CompoundAnnualGrowthRate = decimal.Zero
		}
	}
	return nil
}

// CalculateBiggestDrawdown returns the largest peak to trough decline of an
// equity curve
func CalculateBiggestDrawdown(curve []holdings.Equity) (Swing, error) {
	if len(curve) == 0 {
		return Swing{}, fmt.Errorf("%w to calculate drawdowns", errReceivedNoData)
	}
	values := make([]decimal.Decimal, len(curve))
	for i := range curve {
		values[i] = curve[i].Equity
	}
	drawdown, peak, trough := gctmath.MaxDrawdown(values)
	return Swing{
		Highest: ValueAtTime{
			Time:  curve[peak].Time,
			Value: curve[peak].Equity,
		},
		Lowest: ValueAtTime{
			Time:  curve[trough].Time,
			Value: curve[trough].Equity,
		},
		DrawdownPercent: drawdown.Neg().Mul(decimal.NewFromInt(100)),
		Intervals:       int64(trough - peak),
	}, nil
}

// PrintTotalResults outputs all results to the logger
func (s *Statistic) PrintTotalResults(logger *log.SubLogger) {
	if logger == nil {
		logger = log.Statistics
	}
	sep := func(title string) string {
		return "------------------" + fSIL(title, 43)
	}
	log.Info(logger, sep("Strategy"))
	log.Infof(logger, "Strategy Name: %v", s.StrategyName)
	log.Infof(logger, "Strategy Nickname: %v", s.StrategyNickname)
	log.Infof(logger, "Strategy Goal: %v", s.StrategyGoal)
	log.Infof(logger, "Period: %v to %v", s.StartDate.Format(time.RFC3339), s.EndDate.Format(time.RFC3339))
	log.Info(logger, sep("Orders"))
	log.Infof(logger, "Total buy fills: %v", s.TotalBuyOrders)
	log.Infof(logger, "Total sell fills: %v", s.TotalSellOrders)
	log.Infof(logger, "Rejected: %v Expired: %v Cancelled: %v", s.TotalRejections, s.TotalExpired, s.TotalCancelled)
	log.Infof(logger, "Total commission: $%v", s.TotalCommission.StringFixed(2))
	log.Infof(logger, "Total slippage: $%v", s.TotalSlippage.StringFixed(2))
	for i := range s.InstrumentStatistics {
		is := &s.InstrumentStatistics[i]
		log.Info(logger, sep(is.Instrument))
		log.Infof(logger, "Final quantity: %v @ %v", is.FinalQuantity, is.AverageCost.StringFixed(4))
		log.Infof(logger, "Realised PNL: $%v Unrealised PNL: $%v", is.RealisedPNL.StringFixed(2), is.UnrealisedPNL.StringFixed(2))
	}
	log.Info(logger, sep("Total Results"))
	log.Infof(logger, "Initial funds: $%v", s.InitialFunds.StringFixed(2))
	log.Infof(logger, "Final equity: $%v", s.FinalEquity.StringFixed(2))
	log.Infof(logger, "Total return: %v%%", s.TotalReturn.StringFixed(4))
	log.Infof(logger, "Compound annual growth rate: %v%%", s.CompoundAnnualGrowthRate.StringFixed(4))
	log.Infof(logger, "Sharpe ratio: %v annualised: %v", s.SharpeRatio.StringFixed(4), s.AnnualisedSharpeRatio.StringFixed(4))
	log.Infof(logger, "Max drawdown: %v%% from $%v at %v to $%v at %v",
		s.MaxDrawdown.DrawdownPercent.StringFixed(4),
		s.MaxDrawdown.Highest.Value.StringFixed(2),
		s.MaxDrawdown.Highest.Time.Format(time.RFC3339),
		s.MaxDrawdown.Lowest.Value.StringFixed(2),
		s.MaxDrawdown.Lowest.Time.Format(time.RFC3339))
	log.Infof(logger, "Profitable: %v", s.IsStrategyProfitable)
}

// Serialise outputs the Statistic struct in json
func (s *Statistic) Serialise() (string, error) {
	if s == nil {
		return "", common.ErrNilPointer
	}
	resp, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return "", err
	}
	return string(resp), nil
}
