package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/data"
	"github.com/thrasher-corp/gct-backtester/database"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/eventholder"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/compliance"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/portfolio/holdings"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/statistics"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies/base"
	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/thrasher-corp/gct-backtester/writer"
	"golang.org/x/sync/semaphore"
)

var (
	errNilConfig          = errors.New("unable to setup backtester with nil config")
	errNilData            = errors.New("nil data received")
	errNotSetup           = errors.New("backtest has not been setup")
	errAlreadyRan         = errors.New("run already ran")
	errRunIsRunning       = errors.New("run is already running")
	errRunHasNotRan       = errors.New("run hasn't ran yet")
	errRunNotFound        = errors.New("run not found")
	errRunAlreadyTracked  = errors.New("run already monitored")
	errCannotClear        = errors.New("cannot clear run")
	errNoLoggerSetup      = errors.New("run is missing log storage")
	errUnexpectedEvent    = errors.New("unexpected event")
	errDatabaseRequired   = errors.New("a database connection is required")
	errInvalidWorkerCount = errors.New("worker count must be above zero")
	errRunCancelled       = errors.New("run cancelled")
)

// BackTest is the main holder of all backtesting functionality. Each run
// owns its queue, portfolio, strategy state and random source, nothing is
// shared between runs
type BackTest struct {
	m             sync.Mutex
	MetaData      RunMetaData
	Strategy      strategies.Handler
	Feed          data.Feed
	Portfolio     portfolio.Handler
	Exchange      exchange.ExecutionHandler
	Statistic     *statistics.Statistic
	EventQueue    eventholder.EventHolder
	compliance    *compliance.Manager
	guard         data.Guard
	strategyState base.State
	output        config.OutputSettings
	database      *database.Instance
	darkReport    bool
	logger        *log.SubLogger
	logHolder     *writer.Writer
	shutdown      chan struct{}
	stopOnce      sync.Once
	queued        bool
	processed     int64
	result        *Result
}

// RunSettings holds the application level dependencies shared by the runs
// it creates. Database may be nil when no run needs it. DataDirectory
// resolves sqlite database overrides
type RunSettings struct {
	Database      *database.Instance
	DataDirectory string
	DarkReport    bool
}

// RunMetaData contains details about a run such as when it was loaded
type RunMetaData struct {
	ID          string    `json:"id"`
	Strategy    string    `json:"strategy"`
	Nickname    string    `json:"nickname"`
	DateLoaded  time.Time `json:"date-loaded"`
	DateStarted time.Time `json:"date-started"`
	DateEnded   time.Time `json:"date-ended"`
	Closed      bool      `json:"closed"`
}

// Result is the outcome of a run. The equity curve and audit log are kept
// for cancelled and failed runs up to the point the run stopped
type Result struct {
	ID              string                `json:"id"`
	Status          common.RunStatus      `json:"status"`
	Reason          string                `json:"reason,omitempty"`
	ProcessedEvents int64                 `json:"processed-events"`
	Discarded       int                   `json:"discarded-events"`
	EquityCurve     []holdings.Equity     `json:"equity-curve"`
	Audit           []compliance.Record   `json:"audit"`
	Statistic       *statistics.Statistic `json:"statistics,omitempty"`
}

// RunSummary holds details of a run for listing
type RunSummary struct {
	MetaData RunMetaData      `json:"metadata"`
	Status   common.RunStatus `json:"status,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// TaskManager contains all strategy runs. Started runs execute in their own
// goroutine, at most limiter of them at a time
type TaskManager struct {
	m       sync.Mutex
	ctx     context.Context
	tasks   []*BackTest
	limiter *semaphore.Weighted
	wg      sync.WaitGroup
}
