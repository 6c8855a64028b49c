// pkg/core/sample.go
package core

import "time"

// GeoSample is one reported device position.
type GeoSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // metres, smaller is better
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"`
}

// NamedPlace is a user-labeled point captured from the last known sample.
type NamedPlace struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

// RenderHint tells the map what changed after a sample was applied.
type RenderHint struct {
	Center  GeoSample
	Segment bool // a new path segment was drawn
}
