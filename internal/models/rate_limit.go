package models

import "time"

// RateLimitRecord is one fixed-window counter, unique per
// (identifier, endpoint). The window is advisory: stale rows are swept
// opportunistically on the next check, not by a background timer.
type RateLimitRecord struct {
	Identifier   string    `json:"identifier"`
	Endpoint     string    `json:"endpoint"`
	RequestCount int       `json:"request_count"`
	WindowStart  time.Time `json:"window_start"`
}
