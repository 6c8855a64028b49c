package session

import (
	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
)

// BestKnownLocation returns the candidate with the smallest accuracy value.
// Ties go to the first candidate in input order. Malformed candidates are
// skipped, and ok is false when nothing usable remains.
func BestKnownLocation(candidates []core.GeoSample) (best core.GeoSample, ok bool) {
	for _, c := range candidates {
		if geo.ValidateSample(c) != nil {
			continue
		}
		if !ok || c.Accuracy < best.Accuracy {
			best = c
			ok = true
		}
	}
	return best, ok
}
