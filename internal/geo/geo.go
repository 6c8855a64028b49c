package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/wroge/wgs84"

	"github.com/pathkeeper/tracker/pkg/core"
)

// Samples arrive in WGS84 (EPSG:4326). Map tiles are addressed in Web Mercator
// (EPSG:3857), so anything handed to a tile-based map is projected here.

// EarthRadiusMeters is the mean earth radius used for great-circle distances.
const EarthRadiusMeters = 6371008.8

// DefaultZoom is the zoom level the map uses when recentering.
const DefaultZoom = 15

// mercatorOrigin is half the EPSG:3857 world width in metres.
const mercatorOrigin = 20037508.342789244

// ErrInvalidCoordinates is returned when a sample cannot be placed on the globe
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Validate checks that a latitude/longitude/accuracy triple is usable.
func Validate(lat, lon, accuracy float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0):
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	case math.IsNaN(lon) || math.IsInf(lon, 0):
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lon)
	case lat < -90 || lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, lat)
	case lon < -180 || lon > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, lon)
	case math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy < 0:
		return fmt.Errorf("%w: accuracy %v", ErrInvalidCoordinates, accuracy)
	}
	return nil
}

// ValidateSample is Validate for a core.GeoSample.
func ValidateSample(s core.GeoSample) error {
	return Validate(s.Latitude, s.Longitude, s.Accuracy)
}

// DistanceMeters returns the great-circle distance between two samples.
func DistanceMeters(a, b core.GeoSample) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PathLengthMeters sums the great-circle length of consecutive path segments.
func PathLengthMeters(path []core.GeoSample) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += DistanceMeters(path[i-1], path[i])
	}
	return total
}

// WebMercator projects a WGS84 position to EPSG:3857 metres.
func WebMercator(lat, lon float64) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(lon, lat, 0)
	return x, y
}

// TileXY returns the slippy-map tile containing the position at the given zoom.
func TileXY(lat, lon float64, zoom int) (tx, ty int) {
	x, y := WebMercator(lat, lon)
	n := math.Exp2(float64(zoom))
	tx = int(math.Floor((x + mercatorOrigin) / (2 * mercatorOrigin) * n))
	ty = int(math.Floor((mercatorOrigin - y) / (2 * mercatorOrigin) * n))

	// clamp the edges (lon = 180, lat at the projection limit)
	maxTile := int(n) - 1
	tx = min(max(tx, 0), maxTile)
	ty = min(max(ty, 0), maxTile)
	return tx, ty
}
