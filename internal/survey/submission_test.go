package survey

import (
	"strings"
	"testing"
	"time"
)

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func validRaw() RawSubmission {
	return RawSubmission{
		Name:    "Jo",
		Email:   "jo@x.com",
		Age:     intPtr(40),
		Consent: boolPtr(true),
		Rating:  intPtr(5),
	}
}

func frozenValidator(at time.Time) *Validator {
	v := NewValidator()
	v.now = func() time.Time { return at }
	return v
}

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Violations) == 0 {
		t.Fatalf("validation error with no violations")
	}
	fields := make([]string, 0, len(ve.Violations))
	for _, fv := range ve.Violations {
		fields = append(fields, fv.Field)
	}
	return fields
}

func TestValidateAccepts(t *testing.T) {
	sub, err := NewValidator().Validate(validRaw())
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if sub.Name != "Jo" || sub.Email != "jo@x.com" || sub.Age != 40 || sub.Rating != 5 {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	if !sub.Consent {
		t.Fatalf("expected consent true")
	}
	if sub.SubmissionID == "" {
		t.Fatalf("expected a derived submission id")
	}
}

func TestValidateTrimsComments(t *testing.T) {
	raw := validRaw()
	raw.Comments = strPtr("  great  ")
	sub, err := NewValidator().Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if sub.Comments != "great" {
		t.Fatalf("expected trimmed comments %q, got %q", "great", sub.Comments)
	}
}

func TestValidateConsentRequired(t *testing.T) {
	for name, consent := range map[string]*bool{"false": boolPtr(false), "missing": nil} {
		raw := validRaw()
		raw.Consent = consent
		_, err := NewValidator().Validate(raw)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		ve, ok := AsValidationError(err)
		if !ok {
			t.Fatalf("%s: expected *ValidationError, got %v", name, err)
		}
		found := false
		for _, fv := range ve.Violations {
			if fv.Field == "consent" && strings.Contains(fv.Reason, "consent") {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected a consent violation, got %+v", name, ve.Violations)
		}
	}
}

func TestValidateFieldBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RawSubmission)
		field  string
	}{
		{"empty name", func(r *RawSubmission) { r.Name = "" }, "name"},
		{"long name", func(r *RawSubmission) { r.Name = strings.Repeat("a", 101) }, "name"},
		{"missing email", func(r *RawSubmission) { r.Email = "" }, "email"},
		{"bad email", func(r *RawSubmission) { r.Email = "not-an-email" }, "email"},
		{"display-name email", func(r *RawSubmission) { r.Email = "Jo Smith <jo@x.com>" }, "email"},
		{"dotless domain", func(r *RawSubmission) { r.Email = "a@b" }, "email"},
		{"missing age", func(r *RawSubmission) { r.Age = nil }, "age"},
		{"too young", func(r *RawSubmission) { r.Age = intPtr(12) }, "age"},
		{"too old", func(r *RawSubmission) { r.Age = intPtr(121) }, "age"},
		{"missing rating", func(r *RawSubmission) { r.Rating = nil }, "rating"},
		{"rating low", func(r *RawSubmission) { r.Rating = intPtr(0) }, "rating"},
		{"rating high", func(r *RawSubmission) { r.Rating = intPtr(6) }, "rating"},
		{"long comments", func(r *RawSubmission) { r.Comments = strPtr(strings.Repeat("c", 1001)) }, "comments"},
		{"long user agent", func(r *RawSubmission) { r.UserAgent = strPtr(strings.Repeat("u", 1001)) }, "user_agent"},
	}
	for _, tc := range cases {
		raw := validRaw()
		tc.mutate(&raw)
		_, err := NewValidator().Validate(raw)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		fields := violationFields(t, err)
		if len(fields) != 1 || fields[0] != tc.field {
			t.Fatalf("%s: expected one violation on %q, got %v", tc.name, tc.field, fields)
		}
	}
}

func TestValidateBoundaryValuesAccepted(t *testing.T) {
	raw := validRaw()
	raw.Name = strings.Repeat("n", 100)
	raw.Age = intPtr(13)
	raw.Rating = intPtr(1)
	raw.Comments = strPtr("  " + strings.Repeat("c", 1000) + "  ")
	raw.UserAgent = strPtr(strings.Repeat("u", 1000))
	sub, err := NewValidator().Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(sub.Comments) != 1000 {
		t.Fatalf("expected 1000-char trimmed comments, got %d", len(sub.Comments))
	}
	raw.Age = intPtr(120)
	raw.Rating = intPtr(5)
	if _, err := NewValidator().Validate(raw); err != nil {
		t.Fatalf("upper bounds rejected: %v", err)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	raw := RawSubmission{
		Name:      strings.Repeat("n", 101),
		Email:     "nope",
		Age:       intPtr(10),
		Consent:   boolPtr(false),
		Rating:    intPtr(9),
		Comments:  strPtr(strings.Repeat("c", 1001)),
		UserAgent: strPtr(strings.Repeat("u", 1001)),
	}
	_, err := NewValidator().Validate(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
	got := violationFields(t, err)
	want := []string{"name", "email", "age", "consent", "rating", "comments", "user_agent"}
	if len(got) != len(want) {
		t.Fatalf("expected %d violations, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("violation %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestValidateKeepsSuppliedSubmissionID(t *testing.T) {
	raw := validRaw()
	raw.SubmissionID = strPtr("explicit-id")
	sub, err := NewValidator().Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if sub.SubmissionID != "explicit-id" {
		t.Fatalf("expected supplied id to pass through, got %q", sub.SubmissionID)
	}
}

func TestSubmissionIDDerivation(t *testing.T) {
	hour := time.Date(2024, 3, 15, 14, 7, 0, 0, time.UTC)
	v := frozenValidator(hour)

	raw := validRaw()
	raw.Email = "a@b.com"
	first, err := v.Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if want := HashPII("a@b.com" + "2024031514"); first.SubmissionID != want {
		t.Fatalf("expected id %s, got %s", want, first.SubmissionID)
	}

	// Same email, same hour, different minute: identical id.
	later := frozenValidator(hour.Add(45 * time.Minute))
	second, err := later.Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if second.SubmissionID != first.SubmissionID {
		t.Fatalf("ids diverged within one hour: %s vs %s", first.SubmissionID, second.SubmissionID)
	}

	// Next hour: different id.
	next := frozenValidator(hour.Add(time.Hour))
	third, err := next.Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if third.SubmissionID == first.SubmissionID {
		t.Fatalf("expected a different id across hours")
	}
	if want := HashPII("a@b.com" + "2024031515"); third.SubmissionID != want {
		t.Fatalf("expected id %s, got %s", want, third.SubmissionID)
	}
}
