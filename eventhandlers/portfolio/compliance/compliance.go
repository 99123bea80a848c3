package compliance

import (
	"fmt"

	"github.com/thrasher-corp/gct-backtester/common"
)

// AddRecord appends a record to the audit log
func (m *Manager) AddRecord(r *Record) error {
	if m == nil {
		return common.ErrNilPointer
	}
	if r == nil {
		return common.ErrNilArguments
	}
	switch r.Status {
	case common.Filled, common.Rejected, common.Expired, common.Cancelled:
	default:
		return fmt.Errorf("%w %q", errInvalidStatus, r.Status)
	}
	if r.Source == "" {
		return errMissingSource
	}
	rec := *r
	rec.Time = rec.Time.UTC()
	m.m.Lock()
	m.records = append(m.records, rec)
	m.m.Unlock()
	return nil
}

// GetRecords returns a copy of every record
func (m *Manager) GetRecords() []Record {
	if m == nil {
		return nil
	}
	m.m.RLock()
	defer m.m.RUnlock()
	resp := make([]Record, len(m.records))
	copy(resp, m.records)
	return resp
}

// GetRecordsByStatus returns a copy of the records matching status
func (m *Manager) GetRecordsByStatus(status common.OrderStatus) []Record {
	if m == nil {
		return nil
	}
	m.m.RLock()
	defer m.m.RUnlock()
	var resp []Record
	for i := range m.records {
		if m.records[i].Status == status {
			resp = append(resp, m.records[i])
		}
	}
	return resp
}

// Len returns the number of records
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.records)
}

// Reset removes all records
func (m *Manager) Reset() {
	if m == nil {
		return
	}
	m.m.Lock()
	m.records = nil
	m.m.Unlock()
}
