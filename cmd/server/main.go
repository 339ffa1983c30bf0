package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/surveygate/surveygate/internal/api"
	"github.com/surveygate/surveygate/internal/db"
	"github.com/surveygate/surveygate/internal/middleware"
	"github.com/surveygate/surveygate/internal/utils"
)

func main() {
	addr := utils.SafeEnv("SURVEYGATE_ADDR", ":8080")
	commit := os.Getenv("SURVEYGATE_COMMIT")
	buildTime := os.Getenv("SURVEYGATE_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	admin, err := adminFromEnv()
	if err != nil {
		log.Fatalf("admin credential: %v", err)
	}

	mux := http.NewServeMux()
	api.NewRouter(store, admin).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Surveygate API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	handler := middleware.CORS(middleware.SecureHeaders(middleware.WithAuth(mux)))

	log.Printf("surveygate listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks SQLite when SURVEYGATE_DB names a file, otherwise an
// in-memory store (dev only: records vanish on restart).
func openStore() (api.Store, error) {
	path := os.Getenv("SURVEYGATE_DB")
	if path == "" {
		log.Printf("SURVEYGATE_DB not set, using in-memory store")
		return api.NewMemoryStore(), nil
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return db.NewStore(conn)
}

// adminFromEnv hashes the operator password once at startup. Without a
// password the admin endpoints stay disabled.
func adminFromEnv() (api.AdminCredential, error) {
	pass := os.Getenv("SURVEYGATE_ADMIN_PASSWORD")
	if pass == "" {
		log.Printf("SURVEYGATE_ADMIN_PASSWORD not set, admin endpoints disabled")
		return api.AdminCredential{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return api.AdminCredential{}, err
	}
	return api.AdminCredential{
		Email:    utils.SafeEnv("SURVEYGATE_ADMIN_EMAIL", "admin@localhost"),
		PassHash: hash,
	}, nil
}
