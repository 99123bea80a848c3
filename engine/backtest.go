package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/eventholder"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventtypes/fill"
	"github.com/thrasher-corp/gct-backtester/eventtypes/kline"
	"github.com/thrasher-corp/gct-backtester/eventtypes/order"
	"github.com/thrasher-corp/gct-backtester/eventtypes/signal"
	"github.com/thrasher-corp/gct-backtester/log"
)

// New returns a new BackTest instance
func New() *BackTest {
	return &BackTest{
		shutdown:   make(chan struct{}),
		EventQueue: &eventholder.Holder{},
		compliance: &compliance.Manager{},
		logger:     log.BackTester,
	}
}

// Run processes events until the feed is exhausted and the queue is empty,
// the context is cancelled or Stop is called. A result is returned for every
// outcome. Failed runs also return the error which stopped them
func (bt *BackTest) Run(ctx context.Context) (*Result, error) {
	if bt == nil {
		return nil, fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	if err := bt.start(); err != nil {
		return nil, err
	}
	log.Infof(bt.logger, "running backtest %v %v", bt.MetaData.Nickname, bt.MetaData.ID)
	return bt.finish(ctx, bt.run(ctx))
}

func (bt *BackTest) start() error {
	bt.m.Lock()
	defer bt.m.Unlock()
	if bt.Strategy == nil || bt.Feed == nil || bt.Portfolio == nil || bt.Exchange == nil || bt.EventQueue == nil {
		return errNotSetup
	}
	switch {
	case bt.MetaData.Closed:
		return fmt.Errorf("%w %v", errAlreadyRan, bt.MetaData.ID)
	case !bt.MetaData.DateStarted.IsZero():
		return fmt.Errorf("%w %v", errRunIsRunning, bt.MetaData.ID)
	}
	bt.MetaData.DateStarted = time.Now()
	return nil
}

// run is the event loop. Every event derived from a bar is handled before
// the next bar is pulled from the feed
func (bt *BackTest) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w %w", errRunCancelled, ctx.Err())
		case <-bt.shutdown:
			return errRunCancelled
		default:
		}
		ev := bt.EventQueue.NextEvent()
		if ev == nil {
			k, ok := bt.Feed.Next()
			if !ok {
				return nil
			}
			if err := bt.guard.Check(k); err != nil {
				return err
			}
			bt.EventQueue.AppendEvent(k)
			continue
		}
		bt.processed++
		if err := bt.handleEvent(ev); err != nil {
			return err
		}
	}
}

// handleEvent routes an event by its kind. Emitted events are appended to
// the back of the queue in the order they are produced
func (bt *BackTest) handleEvent(ev common.Event) error {
	switch ev.Kind() {
	case common.MarketKind:
		if k, ok := ev.(kline.Event); ok {
			return bt.processMarketEvent(k)
		}
	case common.SignalKind:
		if s, ok := ev.(signal.Event); ok {
			return bt.processSignalEvent(s)
		}
	case common.OrderKind:
		if o, ok := ev.(order.Event); ok {
			return bt.processOrderEvent(o)
		}
	case common.FillKind:
		if f, ok := ev.(fill.Event); ok {
			return bt.Portfolio.OnFill(f)
		}
	}
	return fmt.Errorf("%w %T tagged %v", errUnexpectedEvent, ev, ev.Kind())
}

// processMarketEvent fills pending orders on the bar first, then marks the
// portfolio to market and finally asks the strategy for signals
func (bt *BackTest) processMarketEvent(k kline.Event) error {
	fills, err := bt.Exchange.OnMarket(k)
	if err != nil {
		return err
	}
	for i := range fills {
		bt.EventQueue.AppendEvent(fills[i])
	}
	if err = bt.Portfolio.OnMarket(k); err != nil {
		return err
	}
	signals, state, err := bt.Strategy.OnData(k, bt.strategyState)
	if err != nil {
		return fmt.Errorf("strategy %v: %w", bt.Strategy.Name(), err)
	}
	bt.strategyState = state
	for i := range signals {
		log.Debugf(bt.logger, "%v %v signal %v: %v", k.GetTime(), k.GetInstrument(), signals[i].GetDirection(), signals[i].GetReason())
		bt.EventQueue.AppendEvent(signals[i])
	}
	return nil
}

func (bt *BackTest) processSignalEvent(s signal.Event) error {
	o, err := bt.Portfolio.OnSignal(s)
	if err != nil {
		return err
	}
	if o != nil {
		bt.EventQueue.AppendEvent(o)
	}
	return nil
}

// processOrderEvent hands the order to the execution simulator. A rejected
// order releases what the portfolio reserved for it
func (bt *BackTest) processOrderEvent(o order.Event) error {
	status, err := bt.Exchange.OnOrder(o)
	if err != nil {
		return err
	}
	if status == common.Rejected {
		bt.Portfolio.CancelPending(o.GetID())
	}
	return nil
}

// finish closes outstanding orders, summarises the run and writes its
// output. Output is written for every outcome
func (bt *BackTest) finish(ctx context.Context, runErr error) (*Result, error) {
	res := &Result{
		ID:     bt.MetaData.ID,
		Status: common.StatusCompleted,
	}
	switch {
	case runErr == nil:
	case errors.Is(runErr, errRunCancelled):
		res.Status = common.StatusCancelled
		res.Reason = runErr.Error()
		runErr = nil
	default:
		res.Status = common.StatusFailed
		res.Reason = runErr.Error()
	}
	res.ProcessedEvents = bt.processed
	res.Discarded = bt.EventQueue.Discard()
	for _, id := range bt.Exchange.Finalise() {
		bt.Portfolio.CancelPending(id)
	}
	snap := bt.Portfolio.Snapshot()
	res.EquityCurve = snap.EquityCurve
	res.Audit = bt.compliance.GetRecords()
	if bt.Statistic != nil {
		if err := bt.Statistic.CalculateAllResults(&snap, res.Audit); err != nil {
			log.Errorf(bt.logger, "could not calculate statistics: %v", err)
		} else {
			res.Statistic = bt.Statistic
			bt.Statistic.PrintTotalResults(bt.logger)
		}
	}

	outputErr := bt.writeOutput(context.WithoutCancel(ctx), res)
	if outputErr != nil {
		log.Errorf(bt.logger, "could not write run output: %v", outputErr)
	}

	bt.m.Lock()
	bt.MetaData.DateEnded = time.Now()
	bt.MetaData.Closed = true
	bt.result = res
	bt.m.Unlock()

	switch res.Status {
	case common.StatusFailed:
		log.Errorf(bt.logger, "backtest %v failed after %v events: %v", res.ID, res.ProcessedEvents, res.Reason)
	case common.StatusCancelled:
		log.Warnf(bt.logger, "backtest %v cancelled after %v events, %v queued events discarded", res.ID, res.ProcessedEvents, res.Discarded)
	default:
		log.Infof(bt.logger, "backtest %v completed after %v events", res.ID, res.ProcessedEvents)
	}
	return res, errors.Join(runErr, outputErr)
}

// Stop cancels a running backtest. Queued events are discarded
func (bt *BackTest) Stop() error {
	if bt == nil {
		return fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	bt.stopOnce.Do(func() {
		close(bt.shutdown)
	})
	return nil
}

// IsRunning returns whether the run has started and not yet finished
func (bt *BackTest) IsRunning() bool {
	if bt == nil {
		return false
	}
	bt.m.Lock()
	defer bt.m.Unlock()
	return !bt.MetaData.DateStarted.IsZero() && !bt.MetaData.Closed
}

// HasRan returns whether the run has finished
func (bt *BackTest) HasRan() bool {
	if bt == nil {
		return false
	}
	bt.m.Lock()
	defer bt.m.Unlock()
	return bt.MetaData.Closed
}

// MatchesID returns whether the run has the id
func (bt *BackTest) MatchesID(id string) bool {
	if bt == nil || id == "" {
		return false
	}
	return strings.EqualFold(bt.MetaData.ID, id)
}

// GetResult returns the result of a finished run
func (bt *BackTest) GetResult() (*Result, error) {
	if bt == nil {
		return nil, fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	bt.m.Lock()
	defer bt.m.Unlock()
	if bt.result == nil {
		return nil, fmt.Errorf("%w %v", errRunHasNotRan, bt.MetaData.ID)
	}
	return bt.result, nil
}

// GenerateSummary creates a summary of the run
func (bt *BackTest) GenerateSummary() *RunSummary {
	bt.m.Lock()
	defer bt.m.Unlock()
	sum := &RunSummary{MetaData: bt.MetaData}
	if bt.result != nil {
		sum.Status = bt.result.Status
		sum.Reason = bt.result.Reason
	}
	return sum
}

// queue marks the run as handed to a goroutine. It returns false when the
// run was already queued or has finished
func (bt *BackTest) queue() bool {
	bt.m.Lock()
	defer bt.m.Unlock()
	if bt.queued || bt.MetaData.Closed {
		return false
	}
	bt.queued = true
	return true
}

// isActive returns whether the run is waiting to start or running
func (bt *BackTest) isActive() bool {
	bt.m.Lock()
	defer bt.m.Unlock()
	return (bt.queued || !bt.MetaData.DateStarted.IsZero()) && !bt.MetaData.Closed
}
