// Package domain contains the core domain types and business logic for
// projects and their API keys.
package domain

import (
	"regexp"
	"time"
)

// Project is a registered event source. Every API key belongs to exactly
// one project, and every ingested event is scoped to the project whose key
// authenticated the request.
type Project struct {
	// ID is the stable project identifier, chosen at creation time.
	ID string

	// Name is a human-readable label.
	Name string

	// CreatedAt is when the project was registered.
	CreatedAt time.Time
}

// projectIDRegex constrains project IDs to short lowercase slugs so they
// embed cleanly in NATS subjects and cache keys.
var projectIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateProjectID reports whether the given ID is a valid project slug:
// 1 to 64 characters of lowercase alphanumerics, underscores, and hyphens,
// starting with an alphanumeric.
func ValidateProjectID(id string) bool {
	return projectIDRegex.MatchString(id)
}
