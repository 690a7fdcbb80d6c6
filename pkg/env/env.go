package env

import (
	"os"
	"strings"
)

// Prefix namespaces storefront settings in the environment.
const Prefix = "PACKFINDERZ_"

// Get returns the first non-blank value among PACKFINDERZ_<key> and <key>,
// or fallback when neither is set.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
