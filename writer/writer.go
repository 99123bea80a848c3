package writer

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

var errIDNotSet = errors.New("id not set")

// Writer is a custom writer for the backtester which receives every log line
// from the log multiwriter and keeps the lines tagged with its run id. This
// allows simultaneous runs to keep their logs apart
type Writer struct {
	m        sync.Mutex
	runID    string
	matchers [][]byte
	logs     []string
	isActive bool
}

// SetupWriter returns a writer to store logs
func SetupWriter(id string) (*Writer, error) {
	if id == "" {
		return nil, errIDNotSet
	}
	return &Writer{
		runID: id,
		matchers: [][]byte{
			[]byte("run=" + id),
			[]byte(`"run":"` + id + `"`),
		},
		isActive: true,
	}, nil
}

// RunID returns the id of the run the writer captures
func (w *Writer) RunID() string {
	return w.runID
}

// DeActivate prevents any new logs being written to the writer
func (w *Writer) DeActivate() {
	w.m.Lock()
	w.isActive = false
	w.m.Unlock()
}

// Write stores the line when it belongs to the run. Lines for other runs
// are accepted and dropped so they do not fail the multiwriter
func (w *Writer) Write(p []byte) (n int, err error) {
	w.m.Lock()
	defer w.m.Unlock()
	if !w.isActive || len(p) == 0 {
		return len(p), nil
	}
	for i := range w.matchers {
		if bytes.Contains(p, w.matchers[i]) {
			w.logs = append(w.logs, string(p))
			break
		}
	}
	return len(p), nil
}

// Len returns how many lines have been captured
func (w *Writer) Len() int {
	w.m.Lock()
	defer w.m.Unlock()
	return len(w.logs)
}

// String returns the accumulated logs
func (w *Writer) String() string {
	w.m.Lock()
	defer w.m.Unlock()
	var sb strings.Builder
	for i := range w.logs {
		sb.WriteString(w.logs[i])
	}
	return sb.String()
}
