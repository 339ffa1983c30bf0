package survey

import (
	"errors"
	"strconv"
	"time"
)

// StoredRecord is the durable, privacy-preserving form of a Submission:
// email and age are replaced by one-way digests and server-side receipt
// metadata is attached. Records are append-only once written.
type StoredRecord struct {
	Name         string    `json:"name"`
	HashedEmail  string    `json:"hashed_email"`
	HashedAge    string    `json:"hashed_age"`
	Consent      bool      `json:"consent"`
	Rating       int       `json:"rating"`
	Comments     string    `json:"comments,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
	IP           string    `json:"ip"`
	SubmissionID string    `json:"submission_id"`
}

// ErrInvalidSubmission flags a DeriveStoredRecord call with a Submission
// that did not come out of Validate. That is a programming error in the
// caller, not a validation failure to show the end user.
var ErrInvalidSubmission = errors.New("survey: stored record derived from invalid submission")

// DeriveStoredRecord builds the StoredRecord for a validated Submission.
// receivedAt and ip come from the server, never from user input. Email
// and age pass through HashPII (age in its decimal string form); every
// other field is copied verbatim.
func DeriveStoredRecord(sub *Submission, receivedAt time.Time, ip string) (*StoredRecord, error) {
	if sub == nil || !sub.Consent || sub.SubmissionID == "" {
		return nil, ErrInvalidSubmission
	}
	return &StoredRecord{
		Name:         sub.Name,
		HashedEmail:  HashPII(sub.Email),
		HashedAge:    HashPII(strconv.Itoa(sub.Age)),
		Consent:      sub.Consent,
		Rating:       sub.Rating,
		Comments:     sub.Comments,
		UserAgent:    sub.UserAgent,
		ReceivedAt:   receivedAt,
		IP:           ip,
		SubmissionID: sub.SubmissionID,
	}, nil
}
