package survey

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// submissionIDHourLayout is the fixed-width clock-hour component mixed
// into derived submission ids, e.g. "2024031514".
const submissionIDHourLayout = "2006010215"

// HashPII returns the SHA-256 digest of a PII value as 64 lowercase hex
// characters. The hash is unsalted, so equal inputs always produce equal
// digests and records can be joined or deduplicated on hashed fields.
// The trade-off: small input spaces (ages, guessable emails) remain open
// to dictionary attack. Known limitation, do not add a salt here without
// migrating every stored record.
func HashPII(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// deriveSubmissionID collapses repeat submissions from one email within
// one clock hour onto the same id: sha256(email + YYYYMMDDHH). An empty
// email cannot occur after validation; it yields an empty id so the
// defect surfaces downstream instead of minting an id for nobody.
func deriveSubmissionID(email string, now time.Time) string {
	if email == "" {
		return ""
	}
	return HashPII(email + now.Format(submissionIDHourLayout))
}
