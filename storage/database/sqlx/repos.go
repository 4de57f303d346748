// Package sqlxrepos implements the domain Repository interfaces on
// Postgres via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/kyalo/darasa/core"
)

var safeOrderingFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"start_time": true,
	"end_time":   true,
	"name":       true,
	"username":   true,
	"email":      true,
	"title":      true,
	"subject":    true,
	"status":     true,
}

// orderBy renders an ORDER BY clause from orderings, skipping fields that
// are not known sortable columns. fallback is used when nothing survives.
func orderBy(ordering []core.DBOrdering, fallback string) string {
	var parts []string
	for _, ord := range ordering {
		if safeOrderingFields[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
