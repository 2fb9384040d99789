package instance

import "os"

// GetID returns the dyno or worker identifier used to tag process logs.
func GetID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
