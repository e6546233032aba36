package config

import "log"

// MustNonEmpty exits when a required setting resolved to its zero value.
func MustNonEmpty[T ~string | ~[]byte](value T, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
