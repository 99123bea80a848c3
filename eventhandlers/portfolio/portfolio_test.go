package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/risk"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/size"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
)

const testInstrument = "AAPL"

var t1 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return t1.AddDate(0, 0, n-1)
}

func bar(offset int64, t time.Time, closePrice int64) *kline.Kline {
	c := decimal.NewFromInt(closePrice)
	return kline.New(offset, t, testInstrument, c, c, c, c, decimal.NewFromInt(1000))
}

func setupPortfolio(t *testing.T, funds int64, r *risk.Risk) (*Portfolio, *compliance.Manager) {
	t.Helper()
	fee, err := commission.New(commission.Settings{Model: commission.Flat, Flat: decimal.NewFromInt(1)})
	require.NoError(t, err, "commission.New must not error")
	sizer := &size.Size{Method: config.FixedQuantity, Quantity: decimal.NewFromInt(10)}
	cm := &compliance.Manager{}
	p, err := Setup(decimal.NewFromInt(funds), sizer, r, fee, cm, nil)
	require.NoError(t, err, "Setup must not error")
	return p, cm
}

func newFill(orderID string, offset int64, t time.Time, side common.Side, qty, price int64) *fill.Fill {
	return &fill.Fill{
		Base:       event.NewBase(offset, t, testInstrument),
		OrderID:    orderID,
		Side:       side,
		Quantity:   decimal.NewFromInt(qty),
		FillPrice:  decimal.NewFromInt(price),
		Commission: decimal.NewFromInt(1),
	}
}

func TestSetup(t *testing.T) {
	t.Parallel()
	sizer := &size.Size{}
	r := &risk.Risk{}
	cm := &compliance.Manager{}
	_, err := Setup(decimal.Zero, sizer, r, nil, cm, nil)
	assert.ErrorIs(t, err, errInitialFundsZero)
	_, err = Setup(decimal.NewFromInt(1), nil, r, nil, cm, nil)
	assert.ErrorIs(t, err, errSizeManagerUnset)
	_, err = Setup(decimal.NewFromInt(1), sizer, nil, nil, cm, nil)
	assert.ErrorIs(t, err, errRiskManagerUnset)
	_, err = Setup(decimal.NewFromInt(1), sizer, r, nil, nil, nil)
	assert.ErrorIs(t, err, errComplianceManagerUnset)
	p, err := Setup(decimal.NewFromInt(1), sizer, r, nil, cm, nil)
	require.NoError(t, err, "Setup must not error")
	assert.Equal(t, "1", p.Snapshot().Cash.String())
}

func TestMomentumScenario(t *testing.T) {
	t.Parallel()
	p, cm := setupPortfolio(t, 100000, &risk.Risk{})

	require.NoError(t, p.OnMarket(bar(1, day(1), 100)), "OnMarket must not error")
	b2 := bar(2, day(2), 105)
	require.NoError(t, p.OnMarket(b2), "OnMarket must not error")

	o, err := p.OnSignal(signal.New(b2, common.Long, "close rose"))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o, "OnSignal must return an order")
	assert.Equal(t, common.Buy, o.GetSide())
	assert.Equal(t, common.Market, o.GetOrderType())
	assert.Equal(t, "10", o.GetQuantity().String())
	assert.Equal(t, "105", o.GetReferencePrice().String())
	assert.True(t, o.GetTime().Equal(day(2)))
	assert.Contains(t, o.GetReason(), "close rose")
	assert.Equal(t, "10", p.Snapshot().PendingQuantity[testInstrument].String())

	require.NoError(t, p.OnMarket(bar(3, day(3), 103)), "OnMarket must not error")
	require.NoError(t, p.OnFill(newFill(o.GetID(), 3, day(3), common.Buy, 10, 103)), "OnFill must not error")

	snap := p.Snapshot()
	assert.Equal(t, "98969", snap.Cash.String(), "cash should be debited 1031")
	pos := snap.Positions[testInstrument]
	assert.Equal(t, "10", pos.Quantity.String())
	assert.Equal(t, "103", pos.AverageCost.String())
	assert.True(t, snap.PendingQuantity[testInstrument].IsZero())
	require.Len(t, snap.EquityCurve, 3, "one equity entry per bar time")
	last := snap.EquityCurve[2]
	assert.True(t, last.Time.Equal(day(3)))
	assert.Equal(t, "98969", last.Cash.String())
	assert.Equal(t, "1030", last.MarketValue.String())
	assert.Equal(t, "99999", last.Equity.String())
	assert.Equal(t, "100000", snap.EquityCurve[1].Equity.String(), "earlier entries should be untouched by later fills")
	assert.Zero(t, cm.Len(), "nothing should be rejected")

	assert.ErrorIs(t, p.OnFill(newFill(o.GetID(), 3, day(3), common.Buy, 10, 103)), errDuplicateFill)
}

func TestExitWhenFlatIsNoop(t *testing.T) {
	t.Parallel()
	p, cm := setupPortfolio(t, 1000, &risk.Risk{})
	b := bar(1, day(1), 10)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")
	before := p.Snapshot()

	o, err := p.OnSignal(signal.New(b, common.Exit, ""))
	require.NoError(t, err, "OnSignal must not error")
	assert.Nil(t, o)
	assert.Zero(t, cm.Len(), "exit when flat is not a rejection")
	assert.Equal(t, before, p.Snapshot())
}

func TestPendingOrdersCountTowardsTarget(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100000, &risk.Risk{AllowShort: true})
	b := bar(1, day(1), 10)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")

	o, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o)

	again, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	assert.Nil(t, again, "a pending order already reaches the target")

	exit, err := p.OnSignal(signal.New(b, common.Exit, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, exit, "exit should unwind the pending order")
	assert.Equal(t, common.Sell, exit.GetSide())
	assert.Equal(t, "10", exit.GetQuantity().String())
	assert.NotEqual(t, o.GetID(), exit.GetID())

	assert.True(t, p.CancelPending(o.GetID()))
	assert.False(t, p.CancelPending(o.GetID()))
	assert.True(t, p.CancelPending(exit.GetID()))

	retry, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, retry, "cancelled orders should no longer count")
	assert.NotEqual(t, o.GetID(), retry.GetID())
}

func TestExitAgainstUnfilledBuyIsRejected(t *testing.T) {
	t.Parallel()
	p, cm := setupPortfolio(t, 100000, &risk.Risk{})
	b1 := bar(1, day(1), 100)
	require.NoError(t, p.OnMarket(b1), "OnMarket must not error")
	s := signal.New(b1, common.Long, "")
	s.LimitPrice = decimal.NewFromInt(90)
	buy, err := p.OnSignal(s)
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, buy)

	b2 := bar(2, day(2), 100)
	require.NoError(t, p.OnMarket(b2), "OnMarket must not error")
	exit, err := p.OnSignal(signal.New(b2, common.Exit, "close fell"))
	require.NoError(t, err, "OnSignal must not error")
	assert.Nil(t, exit, "selling the unfilled buy would leave a short if the limit is never reached")

	records := cm.GetRecordsByStatus(common.Rejected)
	require.Len(t, records, 1)
	assert.Equal(t, common.Exit, records[0].Direction)
	assert.Contains(t, records[0].Reason, risk.ErrShortNotAllowed.Error())

	// the buy expires unfilled
	assert.True(t, p.CancelPending(buy.GetID()))
	snap := p.Snapshot()
	assert.Equal(t, "100000", snap.Cash.String())
	assert.True(t, snap.Positions[testInstrument].Quantity.IsZero(), "the portfolio must stay flat")
	assert.True(t, snap.PendingQuantity[testInstrument].IsZero())
}

func TestConfiguredLimitOrders(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100000, &risk.Risk{})
	assert.ErrorIs(t, p.SetOrderType("STOP", decimal.Zero), errInvalidOrderType)
	assert.ErrorIs(t, p.SetOrderType(common.Limit, decimal.NewFromInt(-1)), errInvalidLimitOffset)
	assert.ErrorIs(t, p.SetOrderType(common.Limit, decimal.NewFromInt(10000)), errInvalidLimitOffset)
	require.NoError(t, p.SetOrderType(common.Limit, decimal.NewFromInt(100)), "SetOrderType must not error")

	b := bar(1, day(1), 100)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")
	buy, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, buy)
	assert.Equal(t, common.Limit, buy.GetOrderType())
	assert.Equal(t, "99", buy.GetLimitPrice().String(), "buys should be placed below the close")
	assert.Equal(t, "100", buy.GetReferencePrice().String())
	assert.Equal(t, "99009", p.availableCash().String(), "cash should be reserved at the limit price")
	require.True(t, p.CancelPending(buy.GetID()))

	require.NoError(t, p.OnFill(newFill("seed", 1, day(1), common.Buy, 10, 100)), "OnFill must not error")
	sell, err := p.OnSignal(signal.New(b, common.Exit, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, sell)
	assert.Equal(t, common.Sell, sell.GetSide())
	assert.Equal(t, "101", sell.GetLimitPrice().String(), "sells should be placed above the close")
	require.True(t, p.CancelPending(sell.GetID()))

	s := signal.New(b, common.Short, "")
	s.LimitPrice = decimal.NewFromInt(120)
	p.riskManager = &risk.Risk{AllowShort: true}
	short, err := p.OnSignal(s)
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, short)
	assert.Equal(t, "120", short.GetLimitPrice().String(), "a strategy limit price should win")
}

func TestReserveFill(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 1100, &risk.Risk{})
	b := bar(1, day(1), 100)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")
	assert.ErrorIs(t, p.ReserveFill("missing", decimal.NewFromInt(1)), errOrderNotPending)

	gap, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, gap)
	assert.Equal(t, "99", p.availableCash().String())

	err = p.ReserveFill(gap.GetID(), decimal.NewFromInt(1101))
	assert.ErrorIs(t, err, risk.ErrInsufficientCash, "a fill above the cash held must be refused")
	assert.False(t, p.CancelPending(gap.GetID()), "a refused fill should release the order")
	assert.Equal(t, "1100", p.availableCash().String())

	o, err := p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o)
	require.NoError(t, p.ReserveFill(o.GetID(), decimal.NewFromInt(1100)), "ReserveFill must not error")
	assert.True(t, p.availableCash().IsZero(), "the reservation should match the fill cost")
	require.NoError(t, p.OnFill(newFill(o.GetID(), 2, day(2), common.Buy, 10, 109)), "OnFill must not error")
	assert.Equal(t, "9", p.Snapshot().Cash.String())

	m, _ := setupPortfolio(t, 1100, &risk.Risk{AllowMargin: true})
	require.NoError(t, m.OnMarket(b), "OnMarket must not error")
	o, err = m.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o)
	assert.NoError(t, m.ReserveFill(o.GetID(), decimal.NewFromInt(5000)), "margin accounts may overdraw")
}

func TestRejectionsAreAudited(t *testing.T) {
	t.Parallel()
	p, cm := setupPortfolio(t, 50, &risk.Risk{})
	b := bar(1, day(1), 10)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")

	o, err := p.OnSignal(signal.New(b, common.Short, ""))
	require.NoError(t, err, "OnSignal must not error")
	assert.Nil(t, o)

	o, err = p.OnSignal(signal.New(b, common.Long, ""))
	require.NoError(t, err, "OnSignal must not error")
	assert.Nil(t, o)

	records := cm.GetRecordsByStatus(common.Rejected)
	require.Len(t, records, 2)
	assert.Equal(t, compliance.SourcePortfolio, records[0].Source)
	assert.Equal(t, common.Short, records[0].Direction)
	assert.Contains(t, records[0].Reason, risk.ErrShortNotAllowed.Error())
	assert.Contains(t, records[1].Reason, risk.ErrInsufficientCash.Error())
	assert.Equal(t, "50", p.Snapshot().Cash.String(), "rejections should not change state")
}

func TestFlipLongToShort(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100000, &risk.Risk{AllowShort: true})
	b := bar(1, day(1), 10)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")
	require.NoError(t, p.OnFill(newFill("seed", 1, day(1), common.Buy, 10, 10)), "OnFill must not error")

	o, err := p.OnSignal(signal.New(b, common.Short, ""))
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o)
	assert.Equal(t, common.Sell, o.GetSide())
	assert.Equal(t, "20", o.GetQuantity().String())
}

func TestLimitOrderFromSignal(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100000, &risk.Risk{})
	b := bar(1, day(1), 10)
	require.NoError(t, p.OnMarket(b), "OnMarket must not error")
	s := signal.New(b, common.Long, "")
	s.LimitPrice = decimal.NewFromInt(9)

	o, err := p.OnSignal(s)
	require.NoError(t, err, "OnSignal must not error")
	require.NotNil(t, o)
	assert.Equal(t, common.Limit, o.GetOrderType())
	assert.Equal(t, "9", o.GetLimitPrice().String())
}

func TestOnSignalErrors(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100, &risk.Risk{})
	_, err := p.OnSignal(nil)
	assert.ErrorIs(t, err, common.ErrNilEvent)
	_, err = p.OnSignal(signal.New(bar(1, day(1), 1), "SIDEWAYS", ""))
	assert.ErrorIs(t, err, common.ErrInvalidDirection)
	assert.ErrorIs(t, p.OnFill(nil), common.ErrNilEvent)
	assert.ErrorIs(t, p.OnMarket(nil), common.ErrNilEvent)
}

func TestEquityCannotGoBackwards(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100, &risk.Risk{})
	require.NoError(t, p.OnMarket(bar(2, day(2), 1)), "OnMarket must not error")
	err := p.OnMarket(bar(1, day(1), 1))
	assert.ErrorIs(t, err, errEquityOutOfOrder)
	assert.ErrorIs(t, err, common.ErrDataIntegrity)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	p, _ := setupPortfolio(t, 100, &risk.Risk{})
	require.NoError(t, p.OnMarket(bar(1, day(1), 1)), "OnMarket must not error")
	snap := p.Snapshot()
	snap.EquityCurve[0].Cash = decimal.NewFromInt(-1)
	assert.Equal(t, "100", p.Snapshot().EquityCurve[0].Cash.String())
}
