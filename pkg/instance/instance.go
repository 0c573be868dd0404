package instance

import (
	"os"

	"github.com/vidora/vidora-backend/pkg/env"
)

const fallbackID = "vidora-0"

// ID identifies this process in logs. VIDORA_INSTANCE_ID wins, then the
// hostname.
func ID() string {
	if id := env.First("VIDORA_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
