package portfolio

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/risk"
	"github.com/thrasher-corp/gct-backtester/eventtypes/event"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/order"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
	"github.com/thrasher-corp/gct-backtester/log"
)

// Setup creates a portfolio manager instance and sets private fields. fee
// is used to estimate commission when checking funds and may be nil
func Setup(initialFunds decimal.Decimal, sh SizeHandler, r RiskHandler, fee commission.Calculator, cm *compliance.Manager, logger *log.SubLogger) (*Portfolio, error) {
	if !initialFunds.IsPositive() {
		return nil, fmt.Errorf("%w, received %v", errInitialFundsZero, initialFunds)
	}
	if sh == nil {
		return nil, errSizeManagerUnset
	}
	if r == nil {
		return nil, errRiskManagerUnset
	}
	if cm == nil {
		return nil, errComplianceManagerUnset
	}
	if logger == nil {
		logger = log.Portfolio
	}
	return &Portfolio{
		initialFunds: initialFunds,
		cash:         initialFunds,
		positions:    make(map[string]*holdings.Position),
		pending:      make(map[string]pendingOrder),
		filled:       make(map[string]struct{}),
		latestPrices: make(map[string]decimal.Decimal),
		orderType:    common.Market,
		sizeManager:  sh,
		riskManager:  r,
		fee:          fee,
		compliance:   cm,
		logger:       logger,
	}, nil
}

// SetOrderType sets the type of order built for signals which do not carry
// their own limit price. Limit buys are placed offsetBasisPoints below the
// signal close and limit sells the same distance above it
func (p *Portfolio) SetOrderType(orderType common.OrderType, offsetBasisPoints decimal.Decimal) error {
	switch orderType {
	case common.Market, common.Limit:
	default:
		return fmt.Errorf("%w %q", errInvalidOrderType, orderType)
	}
	if offsetBasisPoints.IsNegative() || offsetBasisPoints.GreaterThanOrEqual(basisPoints) {
		return fmt.Errorf("%w, received %v", errInvalidLimitOffset, offsetBasisPoints)
	}
	p.m.Lock()
	defer p.m.Unlock()
	p.orderType = orderType
	p.limitOffset = offsetBasisPoints
	return nil
}

// OnMarket marks positions to the bar's close and writes the equity entry
// for the bar time. Bars sharing a time update the same entry
func (p *Portfolio) OnMarket(k kline.Event) error {
	if k == nil {
		return common.ErrNilEvent
	}
	p.m.Lock()
	defer p.m.Unlock()
	p.latestPrices[k.GetInstrument()] = k.GetClosePrice()
	if pos, ok := p.positions[k.GetInstrument()]; ok {
		pos.UpdateValue(k.GetClosePrice(), k.GetTime())
	}
	return p.setEquity(k)
}

// OnSignal receives the event from the strategy on whether it has signalled to go long, short or exit.
// The portfolio manager sizes the target position, assesses the risk of the
// order needed to reach it and returns the order. A nil order without an
// error means nothing needs to be traded or the order was rejected, rejections
// are recorded in the audit log
func (p *Portfolio) OnSignal(ev signal.Event) (*order.Order, error) {
	if ev == nil {
		return nil, common.ErrNilEvent
	}
	if err := ev.GetDirection().Validate(); err != nil {
		return nil, err
	}
	p.m.Lock()
	defer p.m.Unlock()

	instrument := ev.GetInstrument()
	current := decimal.Zero
	if pos, ok := p.positions[instrument]; ok {
		current = pos.Quantity
	}
	projected := current.Add(p.pendingQuantity(instrument))

	price := ev.GetLimitPrice()
	if !price.IsPositive() {
		price = ev.GetClosePrice()
	}
	if !price.IsPositive() {
		price = p.latestPrices[instrument]
	}

	var target decimal.Decimal
	switch ev.GetDirection() {
	case common.Exit:
		if projected.IsZero() {
			log.Debugf(p.logger, "%v %v exit signal with no open position, nothing to do", ev.GetTime(), instrument)
			return nil, nil
		}
	case common.Long, common.Short:
		if !price.IsPositive() {
			p.reject(ev, "", decimal.Zero, price, fmt.Errorf("%w for %v", errNoPrice, instrument))
			return nil, nil
		}
		size, err := p.sizeManager.SizeTarget(price, p.latestEquity())
		if err != nil {
			p.reject(ev, "", decimal.Zero, price, err)
			return nil, nil
		}
		target = size
		if ev.GetDirection() == common.Short {
			target = size.Neg()
		}
	}

	delta := target.Sub(projected)
	if delta.IsZero() {
		log.Debugf(p.logger, "%v %v %v signal already at target %v", ev.GetTime(), instrument, ev.GetDirection(), target)
		return nil, nil
	}
	side, quantity := common.SideFromQuantity(delta)
	orderType, limitPrice := p.orderPrice(ev, side, price)
	if orderType == common.Limit {
		price = limitPrice
	}
	estimatedCommission := decimal.Zero
	if p.fee != nil {
		estimatedCommission = p.fee.Calculate(price, quantity)
	}
	minimum := current.Add(p.pendingSells(instrument))
	if delta.IsNegative() {
		minimum = minimum.Add(delta)
	}
	reducing := target.Abs().LessThan(projected.Abs()) && (target.IsZero() || target.Sign() == projected.Sign())
	err := p.riskManager.EvaluateOrder(&risk.Assessment{
		Instrument:          instrument,
		Side:                side,
		Quantity:            quantity,
		Price:               price,
		EstimatedCommission: estimatedCommission,
		TargetPosition:      target,
		MinimumPosition:     minimum,
		AvailableCash:       p.availableCash(),
		Equity:              p.latestEquity(),
		Exposures:           p.projectedExposures(),
		Reducing:            reducing,
	})
	if err != nil {
		p.reject(ev, side, quantity, price, err)
		return nil, nil
	}

	p.orderSequence++
	b := event.NewBase(ev.GetOffset(), ev.GetTime(), instrument).
		WithReason(ev.GetReason()).
		WithReason(fmt.Sprintf("%v target %v from %v", ev.GetDirection(), target, projected))
	o := &order.Order{
		Base:           b,
		ID:             order.GenerateID(instrument, ev.GetTime(), p.orderSequence),
		Side:           side,
		Quantity:       quantity,
		OrderType:      orderType,
		LimitPrice:     limitPrice,
		ReferencePrice: ev.GetClosePrice(),
	}
	reserved := decimal.Zero
	if side == common.Buy {
		reserved = quantity.Mul(price).Add(estimatedCommission)
	}
	p.pending[o.ID] = pendingOrder{
		instrument:   instrument,
		quantity:     delta,
		reservedCash: reserved,
	}
	log.Debugf(p.logger, "%v %v %v order %v %v %v", ev.GetTime(), instrument, orderType, o.ID, side, quantity)
	return o, nil
}

// OnFill applies a fill to cash and positions and updates the equity entry
// for the fill time. Each order can only be filled once
func (p *Portfolio) OnFill(ev fill.Event) error {
	if ev == nil {
		return common.ErrNilEvent
	}
	p.m.Lock()
	defer p.m.Unlock()
	if _, ok := p.filled[ev.GetOrderID()]; ok {
		return fmt.Errorf("%w %v", errDuplicateFill, ev.GetOrderID())
	}
	instrument := ev.GetInstrument()
	pos, ok := p.positions[instrument]
	if !ok {
		pos = &holdings.Position{Instrument: instrument}
	}
	realised, err := pos.Update(ev)
	if err != nil {
		return err
	}
	p.positions[instrument] = pos
	p.filled[ev.GetOrderID()] = struct{}{}
	delete(p.pending, ev.GetOrderID())

	p.cash = p.cash.Sub(ev.GetNotional().Mul(ev.GetSide().Sign())).Sub(ev.GetCommission())
	if latest, ok := p.latestPrices[instrument]; ok {
		pos.UpdateValue(latest, ev.GetTime())
	}
	log.Infof(p.logger, "%v %v filled %v %v at %v commission %v realised %v cash %v",
		ev.GetTime(),
		instrument,
		ev.GetSide(),
		ev.GetQuantity(),
		ev.GetFillPrice(),
		ev.GetCommission(),
		realised,
		p.cash)
	return p.setEquity(ev)
}

// ReserveFill replaces the estimated cash reservation of a pending buy with
// the cost of its fill. When the cash not reserved by other orders cannot
// pay for the fill the order is released and the risk error returned
func (p *Portfolio) ReserveFill(orderID string, cost decimal.Decimal) error {
	p.m.Lock()
	defer p.m.Unlock()
	po, ok := p.pending[orderID]
	if !ok {
		return fmt.Errorf("%w %v", errOrderNotPending, orderID)
	}
	available := p.availableCash().Add(po.reservedCash)
	if err := p.riskManager.EvaluateFunding(cost, available); err != nil {
		delete(p.pending, orderID)
		return err
	}
	po.reservedCash = cost
	p.pending[orderID] = po
	return nil
}

// CancelPending releases an order which the execution simulator rejected,
// expired or cancelled. It returns whether the order was pending
func (p *Portfolio) CancelPending(orderID string) bool {
	p.m.Lock()
	defer p.m.Unlock()
	if _, ok := p.pending[orderID]; !ok {
		return false
	}
	delete(p.pending, orderID)
	return true
}

// Snapshot returns a copy of cash, positions, pending quantities and the
// equity curve
func (p *Portfolio) Snapshot() Snapshot {
	p.m.RLock()
	defer p.m.RUnlock()
	resp := Snapshot{
		InitialFunds:    p.initialFunds,
		Cash:            p.cash,
		Positions:       make(map[string]holdings.Position, len(p.positions)),
		PendingQuantity: make(map[string]decimal.Decimal),
		EquityCurve:     make([]holdings.Equity, len(p.equity)),
	}
	for k, v := range p.positions {
		resp.Positions[k] = *v
	}
	for _, v := range p.pending {
		resp.PendingQuantity[v.instrument] = resp.PendingQuantity[v.instrument].Add(v.quantity)
	}
	copy(resp.EquityCurve, p.equity)
	return resp
}

func (p *Portfolio) reject(ev signal.Event, side common.Side, quantity, price decimal.Decimal, reason error) {
	log.Warnf(p.logger, "%v %v %v signal rejected: %v", ev.GetTime(), ev.GetInstrument(), ev.GetDirection(), reason)
	err := p.compliance.AddRecord(&compliance.Record{
		Time:       ev.GetTime(),
		Offset:     ev.GetOffset(),
		Status:     common.Rejected,
		Source:     compliance.SourcePortfolio,
		Instrument: ev.GetInstrument(),
		Direction:  ev.GetDirection(),
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Reason:     reason.Error(),
	})
	if err != nil {
		log.Errorf(p.logger, "could not record rejection: %v", err)
	}
}

// setEquity writes the entry for the event's time. Entries are overwritten
// while the time is current and never revisited once a later time exists
func (p *Portfolio) setEquity(ev common.Event) error {
	marketValue := decimal.Zero
	for _, instrument := range p.sortedInstruments() {
		marketValue = marketValue.Add(p.positions[instrument].MarketValue())
	}
	entry := holdings.Equity{
		Time:        ev.GetTime(),
		Offset:      ev.GetOffset(),
		Cash:        p.cash,
		MarketValue: marketValue,
		Equity:      p.cash.Add(marketValue),
	}
	if n := len(p.equity); n > 0 {
		last := p.equity[n-1]
		switch {
		case last.Time.Equal(entry.Time):
			p.equity[n-1] = entry
			return nil
		case last.Time.After(entry.Time):
			return fmt.Errorf("%w %w %v before %v", common.ErrDataIntegrity, errEquityOutOfOrder, entry.Time, last.Time)
		}
	}
	p.equity = append(p.equity, entry)
	return nil
}

func (p *Portfolio) sortedInstruments() []string {
	resp := make([]string, 0, len(p.positions))
	for k := range p.positions {
		resp = append(resp, k)
	}
	sort.Strings(resp)
	return resp
}

func (p *Portfolio) latestEquity() decimal.Decimal {
	if len(p.equity) == 0 {
		return p.cash
	}
	return p.equity[len(p.equity)-1].Equity
}

func (p *Portfolio) pendingQuantity(instrument string) decimal.Decimal {
	resp := decimal.Zero
	for _, v := range p.pending {
		if v.instrument == instrument {
			resp = resp.Add(v.quantity)
		}
	}
	return resp
}

// pendingSells returns the signed quantity of the pending sells of an instrument
func (p *Portfolio) pendingSells(instrument string) decimal.Decimal {
	resp := decimal.Zero
	for _, v := range p.pending {
		if v.instrument == instrument && v.quantity.IsNegative() {
			resp = resp.Add(v.quantity)
		}
	}
	return resp
}

// orderPrice returns the order type and limit price for a signal. A limit
// price set by the strategy wins over the configured order type
func (p *Portfolio) orderPrice(ev signal.Event, side common.Side, reference decimal.Decimal) (common.OrderType, decimal.Decimal) {
	if ev.GetLimitPrice().IsPositive() {
		return common.Limit, ev.GetLimitPrice()
	}
	if p.orderType != common.Limit || !reference.IsPositive() {
		return common.Market, decimal.Zero
	}
	offset := p.limitOffset.Div(basisPoints)
	if side == common.Buy {
		return common.Limit, reference.Mul(decimal.NewFromInt(1).Sub(offset))
	}
	return common.Limit, reference.Mul(decimal.NewFromInt(1).Add(offset))
}

func (p *Portfolio) availableCash() decimal.Decimal {
	resp := p.cash
	for _, v := range p.pending {
		resp = resp.Sub(v.reservedCash)
	}
	return resp
}

// projectedExposures returns the signed value of every instrument once its
// pending orders fill, valued at the latest known price
func (p *Portfolio) projectedExposures() map[string]decimal.Decimal {
	resp := make(map[string]decimal.Decimal)
	for k, v := range p.positions {
		resp[k] = v.Quantity
	}
	for _, v := range p.pending {
		resp[v.instrument] = resp[v.instrument].Add(v.quantity)
	}
	for k, v := range resp {
		resp[k] = v.Mul(p.latestPrices[k])
	}
	return resp
}
