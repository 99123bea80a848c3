package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/log"
	"github.com/thrasher-corp/gct-backtester/writer"
	"golang.org/x/sync/semaphore"
)

// NewTaskManager creates a task manager to allow the backtester to manage
// multiple strategy runs. Runs started through it use ctx and at most
// maxConcurrent of them execute at once
func NewTaskManager(ctx context.Context, maxConcurrent int) (*TaskManager, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w context", common.ErrNilArguments)
	}
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("%w, received %d", errInvalidWorkerCount, maxConcurrent)
	}
	return &TaskManager{
		ctx:     ctx,
		limiter: semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// AddTask adds a run to the manager and starts capturing its logs
func (tm *TaskManager) AddTask(b *BackTest) error {
	if tm == nil {
		return fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	if b == nil {
		return fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := range tm.tasks {
		if tm.tasks[i] == b || tm.tasks[i].MatchesID(b.MetaData.ID) {
			return fmt.Errorf("%w %v %v", errRunAlreadyTracked, b.MetaData.ID, b.MetaData.Strategy)
		}
	}
	w, err := writer.SetupWriter(b.MetaData.ID)
	if err != nil {
		return err
	}
	if err = log.AddWriter(w); err != nil {
		return err
	}
	b.logHolder = w
	tm.tasks = append(tm.tasks, b)
	return nil
}

// List details all strategy runs
func (tm *TaskManager) List() ([]*RunSummary, error) {
	if tm == nil {
		return nil, fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	resp := make([]*RunSummary, len(tm.tasks))
	for i := range tm.tasks {
		resp[i] = tm.tasks[i].GenerateSummary()
	}
	return resp, nil
}

// GetSummary returns details about a strategy run
func (tm *TaskManager) GetSummary(id string) (*RunSummary, error) {
	b, err := tm.getTask(id)
	if err != nil {
		return nil, err
	}
	return b.GenerateSummary(), nil
}

// GetResult returns the result of a finished run
func (tm *TaskManager) GetResult(id string) (*Result, error) {
	b, err := tm.getTask(id)
	if err != nil {
		return nil, err
	}
	return b.GetResult()
}

// ReportLogs returns the captured logs of a run
func (tm *TaskManager) ReportLogs(id string) (string, error) {
	b, err := tm.getTask(id)
	if err != nil {
		return "", err
	}
	if b.logHolder == nil {
		return "", fmt.Errorf("%w %v", errNoLoggerSetup, id)
	}
	return b.logHolder.String(), nil
}

// StartTask executes a strategy run in the background if found
func (tm *TaskManager) StartTask(id string) error {
	if tm == nil {
		return fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := range tm.tasks {
		switch {
		case !tm.tasks[i].MatchesID(id):
			continue
		case tm.tasks[i].HasRan():
			return fmt.Errorf("%w %v", errAlreadyRan, id)
		case !tm.tasks[i].queue():
			return fmt.Errorf("%w %v", errRunIsRunning, id)
		default:
			tm.execute(tm.tasks[i])
			return nil
		}
	}
	return fmt.Errorf("%v %w", id, errRunNotFound)
}

// StartAllTasks executes every run which has not started yet and returns
// their ids
func (tm *TaskManager) StartAllTasks() ([]string, error) {
	if tm == nil {
		return nil, fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	executed := make([]string, 0, len(tm.tasks))
	for i := range tm.tasks {
		if !tm.tasks[i].queue() {
			continue
		}
		executed = append(executed, tm.tasks[i].MetaData.ID)
		tm.execute(tm.tasks[i])
	}
	return executed, nil
}

// execute runs the backtest in its own goroutine once the limiter allows.
// The log capture is stopped when the run finishes
func (tm *TaskManager) execute(b *BackTest) {
	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		if err := tm.limiter.Acquire(tm.ctx, 1); err == nil {
			defer tm.limiter.Release(1)
		}
		// a cancelled context still produces a cancelled result
		if _, err := b.Run(tm.ctx); err != nil {
			log.Errorf(b.logger, "run %v: %v", b.MetaData.ID, err)
		}
		if err := tm.releaseLogs(b); err != nil {
			log.Errorf(log.BackTester, "could not remove log writer of %v: %v", b.MetaData.ID, err)
		}
	}()
}

// Wait blocks until every started run has finished
func (tm *TaskManager) Wait() {
	if tm == nil {
		return
	}
	tm.wg.Wait()
}

// StopTask stops a strategy run if it is queued or running
func (tm *TaskManager) StopTask(id string) error {
	if tm == nil {
		return fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := range tm.tasks {
		switch {
		case !tm.tasks[i].MatchesID(id):
			continue
		case tm.tasks[i].isActive():
			return tm.tasks[i].Stop()
		case tm.tasks[i].HasRan():
			return fmt.Errorf("%w %v", errAlreadyRan, id)
		default:
			return fmt.Errorf("%w %v", errRunHasNotRan, id)
		}
	}
	return fmt.Errorf("%v %w", id, errRunNotFound)
}

// StopAllTasks stops all queued and running strategies
func (tm *TaskManager) StopAllTasks() ([]*RunSummary, error) {
	if tm == nil {
		return nil, fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	resp := make([]*RunSummary, 0, len(tm.tasks))
	for i := range tm.tasks {
		if !tm.tasks[i].isActive() {
			continue
		}
		if err := tm.tasks[i].Stop(); err != nil {
			return nil, err
		}
		resp = append(resp, tm.tasks[i].GenerateSummary())
	}
	return resp, nil
}

// ClearTask removes a run from memory, but only if it is not running
func (tm *TaskManager) ClearTask(id string) error {
	if tm == nil {
		return fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := range tm.tasks {
		if !tm.tasks[i].MatchesID(id) {
			continue
		}
		if tm.tasks[i].isActive() {
			return fmt.Errorf("%w %v, currently running. Stop it first", errCannotClear, tm.tasks[i].MetaData.ID)
		}
		if err := tm.releaseLogs(tm.tasks[i]); err != nil {
			return err
		}
		tm.tasks = slices.Delete(tm.tasks, i, i+1)
		return nil
	}
	return fmt.Errorf("%v %w", id, errRunNotFound)
}

// ClearAllTasks removes all runs from memory, but only if they are not running
func (tm *TaskManager) ClearAllTasks() (clearedRuns, remainingRuns []*RunSummary, err error) {
	if tm == nil {
		return nil, nil, fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := 0; i < len(tm.tasks); i++ {
		sum := tm.tasks[i].GenerateSummary()
		if tm.tasks[i].isActive() {
			remainingRuns = append(remainingRuns, sum)
			continue
		}
		if err = tm.releaseLogs(tm.tasks[i]); err != nil {
			return nil, nil, err
		}
		clearedRuns = append(clearedRuns, sum)
		tm.tasks = slices.Delete(tm.tasks, i, i+1)
		i--
	}
	return clearedRuns, remainingRuns, nil
}

// releaseLogs detaches the log capture of a run which never started or
// has finished
func (tm *TaskManager) releaseLogs(b *BackTest) error {
	if b.logHolder == nil {
		return nil
	}
	b.logHolder.DeActivate()
	if err := log.RemoveWriter(b.logHolder); err != nil && !errors.Is(err, log.ErrWriterNotFound) {
		return err
	}
	return nil
}

func (tm *TaskManager) getTask(id string) (*BackTest, error) {
	if tm == nil {
		return nil, fmt.Errorf("%w TaskManager", common.ErrNilPointer)
	}
	tm.m.Lock()
	defer tm.m.Unlock()
	for i := range tm.tasks {
		if tm.tasks[i].MatchesID(id) {
			return tm.tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%v %w", id, errRunNotFound)
}
