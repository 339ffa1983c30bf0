package survey

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Field bounds for incoming submissions. Lengths count Unicode code
// points, not bytes.
const (
	maxNameLen      = 100
	maxCommentsLen  = 1000
	maxUserAgentLen = 1000
	minAge          = 13
	maxAge          = 120
	minRating       = 1
	maxRating       = 5
)

// RawSubmission carries survey field values exactly as the caller
// received them. Fields whose absence matters are pointers so "missing"
// and "zero value" stay distinguishable.
type RawSubmission struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Age          *int    `json:"age"`
	Consent      *bool   `json:"consent"`
	Rating       *int    `json:"rating"`
	Comments     *string `json:"comments"`
	UserAgent    *string `json:"user_agent"`
	SubmissionID *string `json:"submission_id"`
}

// Submission is a validated survey submission. Instances come out of
// Validator.Validate only, always with Consent == true and a non-empty
// SubmissionID, and must not be mutated afterwards.
type Submission struct {
	Name         string
	Email        string
	Age          int
	Consent      bool
	Rating       int
	Comments     string
	UserAgent    string
	SubmissionID string
}

// FieldViolation names one violated constraint on one field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every violation found in one pass, not just
// the first, so a caller can show the end user a complete correction
// list.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// validEmail requires a bare addr-spec with a dotted domain.
// mail.ParseAddress alone also admits RFC 5322 name-addr forms
// ("Jo Smith <jo@x.com>") and dotless hosts ("a@b"); accepting those
// would let display names leak into the stored email hash and the
// submission id.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	domain := s[strings.LastIndex(s, "@")+1:]
	return strings.Contains(domain, ".")
}

// Validator checks raw submissions against the intake contract. Its
// clock feeds submission id derivation and is overridable in tests.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: func() time.Time { return time.Now().UTC() }}
}

// Validate either returns a fully populated Submission or a
// *ValidationError listing all violated constraints in field order.
// Comments are trimmed of surrounding whitespace before the length
// check; user_agent passes through untouched. A missing submission_id
// is derived from the email and the current clock hour, a supplied one
// is used as-is.
func (v *Validator) Validate(raw RawSubmission) (*Submission, error) {
	var violations []FieldViolation
	fail := func(field, reason string) {
		violations = append(violations, FieldViolation{Field: field, Reason: reason})
	}

	if raw.Name == "" {
		fail("name", "required")
	} else if utf8.RuneCountInString(raw.Name) > maxNameLen {
		fail("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}

	if raw.Email == "" {
		fail("email", "required")
	} else if !validEmail(raw.Email) {
		fail("email", "must be a valid email address")
	}

	if raw.Age == nil {
		fail("age", "required")
	} else if *raw.Age < minAge || *raw.Age > maxAge {
		fail("age", fmt.Sprintf("must be between %d and %d", minAge, maxAge))
	}

	// Anything other than an explicit boolean true is refused with a
	// consent-specific reason, never a generic type error.
	if raw.Consent == nil || !*raw.Consent {
		fail("consent", "consent must be true")
	}

	if raw.Rating == nil {
		fail("rating", "required")
	} else if *raw.Rating < minRating || *raw.Rating > maxRating {
		fail("rating", fmt.Sprintf("must be between %d and %d", minRating, maxRating))
	}

	comments := ""
	if raw.Comments != nil {
		comments = strings.TrimSpace(*raw.Comments)
		if utf8.RuneCountInString(comments) > maxCommentsLen {
			fail("comments", fmt.Sprintf("must be at most %d characters", maxCommentsLen))
		}
	}

	userAgent := ""
	if raw.UserAgent != nil {
		userAgent = *raw.UserAgent
		if utf8.RuneCountInString(userAgent) > maxUserAgentLen {
			fail("user_agent", fmt.Sprintf("must be at most %d characters", maxUserAgentLen))
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	sub := &Submission{
		Name:      raw.Name,
		Email:     raw.Email,
		Age:       *raw.Age,
		Consent:   true,
		Rating:    *raw.Rating,
		Comments:  comments,
		UserAgent: userAgent,
	}
	if raw.SubmissionID != nil && *raw.SubmissionID != "" {
		sub.SubmissionID = *raw.SubmissionID
	} else {
		sub.SubmissionID = deriveSubmissionID(raw.Email, v.now())
	}
	return sub, nil
}
