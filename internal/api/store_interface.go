package api

import (
	"time"

	"github.com/surveygate/surveygate/internal/survey"
)

// AuditEntry is one line of the trail kept alongside stored records.
type AuditEntry struct {
	ID     string
	Time   time.Time
	Actor  string
	Action string
	Target string
}

// Store is the persistence surface the router needs. Implementations:
// the in-memory store in this package and the SQLite store in
// internal/db.
type Store interface {
	// InsertRecord appends rec. It returns false without error when a
	// record with the same submission id already exists (idempotent
	// replay); stored records are never overwritten.
	InsertRecord(rec *survey.StoredRecord) (bool, error)
	// GetRecord returns the record for submissionID, or nil when absent.
	GetRecord(submissionID string) (*survey.StoredRecord, error)
	// ListRecords returns all records in insertion order.
	ListRecords() ([]*survey.StoredRecord, error)
	AddAudit(entry AuditEntry)
}
