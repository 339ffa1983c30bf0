package api

import (
	"sync"

	"github.com/surveygate/surveygate/internal/survey"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*survey.StoredRecord
	order   []string
	audit   []AuditEntry
}

// NewMemoryStore returns a Store that keeps everything in process
// memory. Used in tests and when no database path is configured.
func NewMemoryStore() Store {
	return &memoryStore{records: map[string]*survey.StoredRecord{}}
}

func (m *memoryStore) InsertRecord(rec *survey.StoredRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.SubmissionID]; ok {
		return false, nil
	}
	copy := *rec
	m.records[rec.SubmissionID] = &copy
	m.order = append(m.order, rec.SubmissionID)
	return true, nil
}

func (m *memoryStore) GetRecord(submissionID string) (*survey.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[submissionID]
	if !ok {
		return nil, nil
	}
	copy := *rec
	return &copy, nil
}

func (m *memoryStore) ListRecords() ([]*survey.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*survey.StoredRecord, 0, len(m.order))
	for _, id := range m.order {
		copy := *m.records[id]
		out = append(out, &copy)
	}
	return out, nil
}

func (m *memoryStore) AddAudit(entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
}
