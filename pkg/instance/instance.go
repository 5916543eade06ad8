package instance

import "github.com/zatgpt/zatgpt-backend/pkg/env"

// idVars are consulted in order; the first non-empty value names the process.
var idVars = []string{"ZATGPT_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns the process instance identifier used in logs.
func GetID() string {
	for _, key := range idVars {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
