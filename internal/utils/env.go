package utils

import "os"

// SafeEnv reads key from the environment, substituting fallback when the
// variable is unset or empty. Surveygate treats empty and unset alike so
// a blank compose/env entry cannot wipe out a default.
func SafeEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
