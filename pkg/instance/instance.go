package instance

import (
	"os"
	"strings"
)

// GetID identifies the running worker in logs. VISADESK_WORKER_ID wins, then
// the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("VISADESK_WORKER_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
