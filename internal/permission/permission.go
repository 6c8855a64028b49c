// Package permission decides whether location access was granted.
package permission

import "errors"

// ErrPermissionDenied is returned when location access is required but not granted.
var ErrPermissionDenied = errors.New("location permission is required")

// Gate reports the current permission state.
type Gate interface {
	Granted() bool
}

// Static is a fixed answer, usually taken from configuration.
type Static bool

func (s Static) Granted() bool {
	return bool(s)
}

// Require returns ErrPermissionDenied unless g grants access. A nil gate denies.
func Require(g Gate) error {
	if g == nil || !g.Granted() {
		return ErrPermissionDenied
	}
	return nil
}
