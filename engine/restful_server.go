package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/gct-backtester/config"
	"github.com/thrasher-corp/gct-backtester/log"
)

// maxConfigSize bounds the body of a run submission
const maxConfigSize = 1 << 20

// ErrorResponse is the body returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitResponse is returned once a run has been created
type SubmitResponse struct {
	ID      string `json:"id"`
	Started bool   `json:"started"`
}

// ClearResponse lists the runs removed and those left running
type ClearResponse struct {
	Cleared   []*RunSummary `json:"cleared"`
	Remaining []*RunSummary `json:"remaining"`
}

// RESTfulJSONResponse outputs a JSON response of the response interface
func RESTfulJSONResponse(w http.ResponseWriter, response any) error {
	return writeJSONResponse(w, http.StatusOK, response)
}

// RESTfulError prints the REST method and error
func RESTfulError(method string, err error) {
	log.Errorf(log.RESTSys, "RESTful %s: server failed to send JSON response. Error %s",
		method, err)
}

// RESTfulErrorResponse writes err as a JSON body with the status
func RESTfulErrorResponse(w http.ResponseWriter, r *http.Request, status int, err error) {
	if writeErr := writeJSONResponse(w, status, ErrorResponse{Error: err.Error()}); writeErr != nil {
		RESTfulError(r.Method, writeErr)
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, response any) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(response)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, response any, err error) {
	if err != nil {
		RESTfulErrorResponse(w, r, statusFromError(err), err)
		return
	}
	if err = RESTfulJSONResponse(w, response); err != nil {
		RESTfulError(r.Method, err)
	}
}

func getIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<html>Backtester RESTful interface. Submit strategy configs to /runs</html>")
}

// restSubmitRun creates a run from a JSON strategy config. The run starts
// immediately unless start=false is passed
func (s *Server) restSubmitRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigSize))
	if err != nil {
		RESTfulErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	start := true
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = strconv.ParseBool(v); err != nil {
			RESTfulErrorResponse(w, r, http.StatusBadRequest, err)
			return
		}
	}
	cfg, err := config.LoadConfig(body)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	bt, err := NewFromConfig(r.Context(), cfg, s.settings)
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	if err = s.manager.AddTask(bt); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	if start {
		if err = s.manager.StartTask(bt.MetaData.ID); err != nil {
			s.respond(w, r, nil, err)
			return
		}
	}
	if err = writeJSONResponse(w, http.StatusCreated, SubmitResponse{ID: bt.MetaData.ID, Started: start}); err != nil {
		RESTfulError(r.Method, err)
	}
}

func (s *Server) restListRuns(w http.ResponseWriter, r *http.Request) {
	resp, err := s.manager.List()
	s.respond(w, r, resp, err)
}

func (s *Server) restGetSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.manager.GetSummary(mux.Vars(r)["id"])
	s.respond(w, r, resp, err)
}

func (s *Server) restGetResult(w http.ResponseWriter, r *http.Request) {
	resp, err := s.manager.GetResult(mux.Vars(r)["id"])
	s.respond(w, r, resp, err)
}

func (s *Server) restGetEquity(w http.ResponseWriter, r *http.Request) {
	res, err := s.manager.GetResult(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	s.respond(w, r, res.EquityCurve, nil)
}

func (s *Server) restGetAudit(w http.ResponseWriter, r *http.Request) {
	res, err := s.manager.GetResult(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	s.respond(w, r, res.Audit, nil)
}

func (s *Server) restGetLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.manager.ReportLogs(mux.Vars(r)["id"])
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	if _, err = io.WriteString(w, logs); err != nil {
		RESTfulError(r.Method, err)
	}
}

func (s *Server) restStartRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.manager.StartTask(id); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	resp, err := s.manager.GetSummary(id)
	s.respond(w, r, resp, err)
}

func (s *Server) restStopRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.manager.StopTask(id); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	resp, err := s.manager.GetSummary(id)
	s.respond(w, r, resp, err)
}

func (s *Server) restStopAllRuns(w http.ResponseWriter, r *http.Request) {
	resp, err := s.manager.StopAllTasks()
	s.respond(w, r, resp, err)
}

func (s *Server) restClearRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.manager.ClearTask(id)
	s.respond(w, r, map[string]string{"cleared": id}, err)
}

func (s *Server) restClearAllRuns(w http.ResponseWriter, r *http.Request) {
	cleared, remaining, err := s.manager.ClearAllTasks()
	s.respond(w, r, ClearResponse{Cleared: cleared, Remaining: remaining}, err)
}
