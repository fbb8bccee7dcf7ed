package instance

import "github.com/angelmondragon/nutritrack-backend/pkg/env"

// GetID returns the process instance identifier used in log fields.
func GetID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("NUTRITRACK_INSTANCE_ID", "local")
}
