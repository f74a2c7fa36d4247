// Package model holds the domain records shared by the store and the
// diagnostics API.
package model

import "time"

// ConfigureEvent records one successful backend configuration: which
// backend was installed as the process default, on what platform, and
// whether the optional high-performance backend was available at the time.
type ConfigureEvent struct {
	ID                string    `json:"id"`
	Platform          string    `json:"platform"`
	Backend           string    `json:"backend"`
	OptionalAvailable bool      `json:"optional_backend_available"`
	RuntimeVersion    string    `json:"runtime_version"`
	CreatedAt         time.Time `json:"created_at"`
}
