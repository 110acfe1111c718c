package runtime

import (
	"encoding/json"
	"strings"
)

// psRecord is the field of a `docker compose ps --format json` line we read.
type psRecord struct {
	Service *string `json:"Service"`
}

// ParsePSHasService reports whether newline-delimited compose ps output
// contains a record for service. Blank and malformed lines are skipped.
func ParsePSHasService(output, service string) bool {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec psRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Service != nil && *rec.Service == service {
			return true
		}
	}
	return false
}
