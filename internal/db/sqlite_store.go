package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/surveygate/surveygate/internal/api"
	"github.com/surveygate/surveygate/internal/survey"
)

// SQLiteStore persists stored records and the audit trail in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	submission_id TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	hashed_email  TEXT NOT NULL,
	hashed_age    TEXT NOT NULL,
	consent       INTEGER NOT NULL,
	rating        INTEGER NOT NULL,
	comments      TEXT,
	user_agent    TEXT,
	received_at   TEXT NOT NULL,
	ip            TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_log (
	id     TEXT PRIMARY KEY,
	time   TEXT NOT NULL,
	actor  TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT
);`

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

const recordColumns = "submission_id, name, hashed_email, hashed_age, consent, rating, comments, user_agent, received_at, ip"

// InsertRecord appends rec. INSERT OR IGNORE keeps records append-only:
// a submission id seen before leaves the original row untouched and
// reports a replay.
func (s *SQLiteStore) InsertRecord(rec *survey.StoredRecord) (bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SubmissionID, rec.Name, rec.HashedEmail, rec.HashedAge,
		boolToInt64(rec.Consent), rec.Rating,
		toNullString(rec.Comments), toNullString(rec.UserAgent),
		rec.ReceivedAt.UTC().Format(time.RFC3339Nano), rec.IP,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetRecord(submissionID string) (*survey.StoredRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE submission_id = ?`, submissionID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) ListRecords() ([]*survey.StoredRecord, error) {
	// rowid keeps insertion order; received_at strings are RFC3339Nano
	// and do not sort lexicographically once fractional zeros drop.
	rows, err := s.db.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*survey.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddAudit(entry api.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (id, time, actor, action, target) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Time.UTC().Format(time.RFC3339Nano), entry.Actor, entry.Action, toNullString(entry.Target),
	)
	s.logErr("add audit", err)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*survey.StoredRecord, error) {
	var rec survey.StoredRecord
	var consent int64
	var comments, userAgent sql.NullString
	var receivedAt string
	if err := row.Scan(&rec.SubmissionID, &rec.Name, &rec.HashedEmail, &rec.HashedAge,
		&consent, &rec.Rating, &comments, &userAgent, &receivedAt, &rec.IP); err != nil {
		return nil, err
	}
	rec.Consent = int64ToBool(consent)
	rec.Comments = comments.String
	rec.UserAgent = userAgent.String
	t, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parse received_at %q: %w", receivedAt, err)
	}
	rec.ReceivedAt = t
	return &rec, nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
