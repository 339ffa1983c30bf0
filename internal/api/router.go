package api

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveygate/surveygate/internal/middleware"
	"github.com/surveygate/surveygate/internal/survey"
)

// AdminCredential is the single env-configured operator login. Admin
// routes answer 404 while PassHash is empty.
type AdminCredential struct {
	Email    string
	PassHash []byte
}

type Router struct {
	store     Store
	validator *survey.Validator
	admin     AdminCredential
	now       func() time.Time
	signToken func(email string, ttl time.Duration) (string, error)
	tokenTTL  time.Duration
}

func NewRouter(store Store, admin AdminCredential) *Router {
	return &Router{
		store:     store,
		validator: survey.NewValidator(),
		admin:     admin,
		now:       func() time.Time { return time.Now().UTC() },
		signToken: middleware.SignToken,
		tokenTTL:  12 * time.Hour,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/submissions", rt.handleSubmit) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)   // POST
	// Admin routes; RequireAuth expects WithAuth further up the chain.
	mux.Handle("/api/records", middleware.RequireAuth(http.HandlerFunc(rt.handleRecords)))
	mux.Handle("/api/records/", middleware.RequireAuth(http.HandlerFunc(rt.handleRecordByID)))
}

// submitRequest mirrors survey.RawSubmission on the wire, except consent
// is decoded leniently: a non-boolean consent value must surface as the
// consent-specific violation, not kill the whole body with a decode
// error.
type submitRequest struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Age          *int            `json:"age"`
	Consent      json.RawMessage `json:"consent"`
	Rating       *int            `json:"rating"`
	Comments     *string         `json:"comments"`
	UserAgent    *string         `json:"user_agent"`
	SubmissionID *string         `json:"submission_id"`
}

func (req *submitRequest) raw() survey.RawSubmission {
	out := survey.RawSubmission{
		Name:         req.Name,
		Email:        req.Email,
		Age:          req.Age,
		Rating:       req.Rating,
		Comments:     req.Comments,
		UserAgent:    req.UserAgent,
		SubmissionID: req.SubmissionID,
	}
	if len(req.Consent) > 0 {
		var b bool
		if err := json.Unmarshal(req.Consent, &b); err == nil {
			out.Consent = &b
		}
	}
	return out
}

// POST /api/submissions
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := rt.validator.Validate(req.raw())
	if err != nil {
		if ve, ok := survey.AsValidationError(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "validation_failed",
				"violations": ve.Violations,
			})
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rec, err := survey.DeriveStoredRecord(sub, rt.now(), clientIP(r))
	if err != nil {
		log.Printf("derive stored record: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	inserted, err := rt.store.InsertRecord(rec)
	if err != nil {
		log.Printf("insert record %s: %v", rec.SubmissionID, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	status := http.StatusOK // replay of a submission id we already hold
	if inserted {
		status = http.StatusCreated
		rt.store.AddAudit(AuditEntry{ID: auditID(), Time: rt.now(), Actor: "participant", Action: "submission_stored", Target: rec.SubmissionID})
	}
	writeJSON(w, status, map[string]any{"submission_id": rec.SubmissionID, "stored": inserted})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if len(rt.admin.PassHash) == 0 {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), rt.admin.Email) ||
		bcrypt.CompareHashAndPassword(rt.admin.PassHash, []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := rt.signToken(rt.admin.Email, rt.tokenTTL)
	if err != nil {
		log.Printf("sign token: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rt.store.AddAudit(AuditEntry{ID: auditID(), Time: rt.now(), Actor: rt.admin.Email, Action: "admin_login", Target: "api"})
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

// GET /api/records
func (rt *Router) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	records, err := rt.store.ListRecords()
	if err != nil {
		log.Printf("list records: %v", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	actor, _ := middleware.EmailFromContext(r.Context())
	rt.store.AddAudit(AuditEntry{ID: auditID(), Time: rt.now(), Actor: actor, Action: "records_export", Target: "all"})
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// GET /api/records/{submission_id}
func (rt *Router) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := rt.store.GetRecord(id)
	if err != nil {
		log.Printf("get record %s: %v", id, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func auditID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// clientIP prefers the first X-Forwarded-For hop so records keep the
// caller's address when the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
