package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/order"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Setup creates an execution simulator which records fills, rejections,
// expiries and cancellations in the compliance manager
func Setup(s *Settings, cm *compliance.Manager, logger *log.SubLogger) (*Exchange, error) {
	if s == nil {
		return nil, common.ErrNilArguments
	}
	fillPrice := strings.ToLower(s.FillPrice)
	switch fillPrice {
	case "":
		fillPrice = FillAtOpen
	case FillAtOpen, FillAtClose:
	default:
		return nil, fmt.Errorf("%w %q", errInvalidFillPrice, s.FillPrice)
	}
	if s.Commission == nil {
		return nil, errCommissionUnset
	}
	if s.Slippage == nil {
		return nil, errSlippageUnset
	}
	if cm == nil {
		return nil, errComplianceUnset
	}
	if logger == nil {
		logger = log.Execution
	}
	return &Exchange{
		fillPrice:  fillPrice,
		commission: s.Commission,
		slippage:   s.Slippage,
		funds:      s.Funds,
		compliance: cm,
		logger:     logger,
		orders:     make(map[string]*trackedOrder),
	}, nil
}

// Reset returns the exchange to initial settings
func (e *Exchange) Reset() {
	e.orders = make(map[string]*trackedOrder)
	e.received = nil
	e.lastTime = time.Time{}
	e.lastOffset = 0
}

// OnOrder registers an order. Invalid or duplicate orders are rejected and
// recorded, a rejection is not an error
func (e *Exchange) OnOrder(o order.Event) (common.OrderStatus, error) {
	if o == nil {
		return "", common.ErrNilEvent
	}
	err := order.Validate(o)
	if err == nil {
		if _, ok := e.orders[o.GetID()]; ok {
			err = fmt.Errorf("%w %v", errDuplicateOrder, o.GetID())
		}
	}
	if err != nil {
		log.Warnf(e.logger, "%v %v order %v rejected: %v", o.GetTime(), o.GetInstrument(), o.GetID(), err)
		e.record(o, common.Rejected, o.GetTime(), o.GetOffset(), decimal.Zero, decimal.Zero, decimal.Zero, err.Error())
		return common.Rejected, nil
	}
	e.orders[o.GetID()] = &trackedOrder{order: o, status: common.Received}
	e.received = append(e.received, o.GetID())
	log.Debugf(e.logger, "%v %v order %v received %v %v %v", o.GetTime(), o.GetInstrument(), o.GetID(), o.GetOrderType(), o.GetSide(), o.GetQuantity())
	return common.Received, nil
}

// OnMarket attempts to fill every open order for the bar's instrument which
// was placed before the bar. Fills are returned in the order the orders
// were received. A buy the funder cannot pay for is rejected instead
func (e *Exchange) OnMarket(k kline.Event) ([]fill.Event, error) {
	if k == nil {
		return nil, common.ErrNilEvent
	}
	e.lastTime = k.GetTime()
	e.lastOffset = k.GetOffset()
	var fills []fill.Event
	remaining := e.received[:0]
	for _, id := range e.received {
		tracked := e.orders[id]
		o := tracked.order
		if o.GetInstrument() != k.GetInstrument() || !k.GetTime().After(o.GetTime()) {
			remaining = append(remaining, id)
			continue
		}
		f, ok := e.execute(o, k)
		if !ok {
			remaining = append(remaining, id)
			continue
		}
		if f.Side == common.Buy && e.funds != nil {
			cost := f.FillPrice.Mul(f.Quantity).Add(f.Commission)
			if err := e.funds.ReserveFill(id, cost); err != nil {
				tracked.status = common.Rejected
				e.record(o, common.Rejected, f.GetTime(), f.GetOffset(), f.FillPrice, decimal.Zero, f.Slippage, err.Error())
				log.Warnf(e.logger, "%v %v order %v rejected at fill: %v", f.GetTime(), f.GetInstrument(), id, err)
				continue
			}
		}
		tracked.status = common.Filled
		e.record(o, common.Filled, f.GetTime(), f.GetOffset(), f.FillPrice, f.Commission, f.Slippage, f.GetReason())
		log.Infof(e.logger, "%v %v order %v filled %v %v at %v", f.GetTime(), f.GetInstrument(), id, f.Side, f.Quantity, f.FillPrice)
		fills = append(fills, f)
	}
	e.received = remaining
	return fills, nil
}

// Finalise closes every open order at the end of a run. Market orders are
// cancelled and limit orders expire
func (e *Exchange) Finalise() []string {
	closed := make([]string, 0, len(e.received))
	for _, id := range e.received {
		tracked := e.orders[id]
		status := common.Cancelled
		reason := "run ended before a bar was available to fill the order"
		if tracked.order.GetOrderType() == common.Limit {
			status = common.Expired
			reason = fmt.Sprintf("limit %v not reached before the run ended", tracked.order.GetLimitPrice())
		}
		tracked.status = status
		e.record(tracked.order, status, e.lastTime, e.lastOffset, decimal.Zero, decimal.Zero, decimal.Zero, reason)
		log.Infof(e.logger, "order %v %v", id, strings.ToLower(string(status)))
		closed = append(closed, id)
	}
	e.received = nil
	return closed
}

// GetOrderStatus returns the state of an order registered with the exchange
func (e *Exchange) GetOrderStatus(id string) (common.OrderStatus, bool) {
	tracked, ok := e.orders[id]
	if !ok {
		return "", false
	}
	return tracked.status, true
}

// execute returns a fill when the bar allows the order to trade
func (e *Exchange) execute(o order.Event, k kline.Event) (*fill.Fill, bool) {
	var price, slipped decimal.Decimal
	var reason string
	switch o.GetOrderType() {
	case common.Limit:
		var ok bool
		price, reason, ok = limitFillPrice(o.GetSide(), o.GetLimitPrice(), k)
		if !ok {
			return nil, false
		}
	default:
		basePrice := k.GetOpenPrice()
		if e.fillPrice == FillAtClose {
			basePrice = k.GetClosePrice()
		}
		price = clampToBar(e.slippage.Apply(o.GetSide(), basePrice), k)
		slipped = price.Sub(basePrice)
		reason = fmt.Sprintf("market order filled at %v %v", e.fillPrice, basePrice)
	}
	b := event.NewBase(k.GetOffset(), k.GetTime(), k.GetInstrument()).WithReason(reason)
	return &fill.Fill{
		Base:           b,
		OrderID:        o.GetID(),
		Side:           o.GetSide(),
		Quantity:       o.GetQuantity(),
		FillPrice:      price,
		Commission:     e.commission.Calculate(price, o.GetQuantity()),
		Slippage:       slipped,
		ReferencePrice: o.GetReferencePrice(),
	}, true
}

// limitFillPrice fills a buy at the open when it gaps through the limit,
// otherwise at the limit when the bar trades through it. Sells mirror buys
func limitFillPrice(side common.Side, limit decimal.Decimal, k kline.Event) (decimal.Decimal, string, bool) {
	open := k.GetOpenPrice()
	if side == common.Buy {
		switch {
		case open.LessThanOrEqual(limit):
			return open, fmt.Sprintf("limit %v filled at open", limit), true
		case k.GetLowPrice().LessThanOrEqual(limit):
			return limit, fmt.Sprintf("limit %v reached", limit), true
		}
		return decimal.Zero, "", false
	}
	switch {
	case open.GreaterThanOrEqual(limit):
		return open, fmt.Sprintf("limit %v filled at open", limit), true
	case k.GetHighPrice().GreaterThanOrEqual(limit):
		return limit, fmt.Sprintf("limit %v reached", limit), true
	}
	return decimal.Zero, "", false
}

func clampToBar(price decimal.Decimal, k kline.Event) decimal.Decimal {
	if price.LessThan(k.GetLowPrice()) {
		return k.GetLowPrice()
	}
	if price.GreaterThan(k.GetHighPrice()) {
		return k.GetHighPrice()
	}
	return price
}

func (e *Exchange) record(o order.Event, status common.OrderStatus, t time.Time, offset int64, price, fee, slipped decimal.Decimal, reason string) {
	err := e.compliance.AddRecord(&compliance.Record{
		Time:       t,
		Offset:     offset,
		Status:     status,
		Source:     compliance.SourceExecution,
		Instrument: o.GetInstrument(),
		OrderID:    o.GetID(),
		Side:       o.GetSide(),
		OrderType:  o.GetOrderType(),
		Quantity:   o.GetQuantity(),
		Price:      price,
		Commission: fee,
		Slippage:   slipped,
		Reason:     reason,
	})
	if err != nil {
		log.Errorf(e.logger, "could not record %v order %v: %v", status, o.GetID(), err)
	}
}
