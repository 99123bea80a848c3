package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/log"
	"golang.org/x/time/rate"
)

const defaultShutdownTimeout = 10 * time.Second

var (
	errNilTaskManager  = errors.New("nil task manager")
	errInvalidRate     = errors.New("submission rate must be above zero")
	errTooManyRequests = errors.New("too many submissions, try again later")
)

// Route is a REST endpoint served by the router
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Server exposes the task manager over a RESTful JSON API. Submissions are
// rate limited, reads are not
type Server struct {
	manager  *TaskManager
	settings *RunSettings
	limiter  *rate.Limiter
	router   *mux.Router
}

// NewServer creates the REST server for a task manager. Runs submitted
// through it are created with rs
func NewServer(tm *TaskManager, rs *RunSettings, submissionsPerSecond float64, burst int) (*Server, error) {
	if tm == nil {
		return nil, errNilTaskManager
	}
	if submissionsPerSecond <= 0 || burst <= 0 {
		return nil, fmt.Errorf("%w, received %v per second with a burst of %v", errInvalidRate, submissionsPerSecond, burst)
	}
	if rs == nil {
		rs = &RunSettings{}
	}
	s := &Server{
		manager:  tm,
		settings: rs,
		limiter:  rate.NewLimiter(rate.Limit(submissionsPerSecond), burst),
	}
	s.router = s.newRouter()
	return s, nil
}

// RESTLogger logs the requests internally
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.RESTSys,
			"%s\t%s\t%s\t%s",
			r.Method,
			r.RequestURI,
			name,
			time.Since(start),
		)
	})
}

// ServeHTTP routes a request to its handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves the API on listenAddr until ctx is done, then shuts
// the server down gracefully
func (s *Server) ListenAndServe(ctx context.Context, listenAddr string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Infof(log.RESTSys, "HTTP REST server support enabled. Listen URL: http://%v", listenAddr)
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	log.Infoln(log.RESTSys, "shutting down REST server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Index", http.MethodGet, "/", getIndex},
		{"SubmitRun", http.MethodPost, "/runs", s.limit(s.restSubmitRun)},
		{"ListRuns", http.MethodGet, "/runs", s.restListRuns},
		{"StopAllRuns", http.MethodPost, "/runs/stop", s.restStopAllRuns},
		{"ClearAllRuns", http.MethodDelete, "/runs", s.restClearAllRuns},
		{"GetRunSummary", http.MethodGet, "/runs/{id}", s.restGetSummary},
		{"GetRunResult", http.MethodGet, "/runs/{id}/result", s.restGetResult},
		{"GetRunEquity", http.MethodGet, "/runs/{id}/equity", s.restGetEquity},
		{"GetRunAudit", http.MethodGet, "/runs/{id}/audit", s.restGetAudit},
		{"GetRunLogs", http.MethodGet, "/runs/{id}/logs", s.restGetLogs},
		{"StartRun", http.MethodPost, "/runs/{id}/start", s.restStartRun},
		{"StopRun", http.MethodPost, "/runs/{id}/stop", s.restStopRun},
		{"ClearRun", http.MethodDelete, "/runs/{id}", s.restClearRun},
	}
	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		handler = RESTLogger(handler, route.Name)
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}

// limit rejects requests once the submission rate is exceeded
func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			RESTfulErrorResponse(w, r, http.StatusTooManyRequests, errTooManyRequests)
			return
		}
		next(w, r)
	}
}

// statusFromError maps errors returned by the task manager and setup to
// an HTTP status
func statusFromError(err error) int {
	switch {
	case errors.Is(err, errRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConfiguration), errors.Is(err, common.ErrDataIntegrity):
		return http.StatusBadRequest
	case errors.Is(err, errRunHasNotRan),
		errors.Is(err, errAlreadyRan),
		errors.Is(err, errRunIsRunning),
		errors.Is(err, errCannotClear),
		errors.Is(err, errRunAlreadyTracked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
