package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/pathkeeper/tracker/pkg/core"
)

// PathLineString builds a lon/lat LineString from a recorded path.
// Returns false when the path has fewer than 2 points.
func PathLineString(path []core.GeoSample) (geom.LineString, bool) {
	if len(path) < 2 {
		return geom.LineString{}, false
	}

	flatCoords := make([]float64, 0, len(path)*2)
	for _, s := range path {
		flatCoords = append(flatCoords, s.Longitude, s.Latitude)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), true
}

// SamplePoint converts a sample into a lon/lat Point.
func SamplePoint(s core.GeoSample) geom.Point {
	return lonLatPoint(s.Longitude, s.Latitude)
}

// PlacePoint converts a named place into a lon/lat Point.
func PlacePoint(p core.NamedPlace) geom.Point {
	return lonLatPoint(p.Longitude, p.Latitude)
}

func lonLatPoint(lon, lat float64) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Type: geom.DimXY,
	})
}

// FeatureCollection renders the map state as GeoJSON features: the path line,
// one point per place and the current position. Nil center or a short path are
// simply left out.
func FeatureCollection(center *core.GeoSample, path []core.GeoSample, places []core.NamedPlace) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(places)+2)

	if ls, ok := PathLineString(path); ok {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: ls.AsGeometry(),
			ID:       "path",
			Properties: map[string]interface{}{
				"kind":    "path",
				"points":  len(path),
				"lengthM": PathLengthMeters(path),
			},
		})
	}

	for i, p := range places {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: PlacePoint(p).AsGeometry(),
			ID:       i,
			Properties: map[string]interface{}{
				"kind":  "place",
				"label": p.Label,
			},
		})
	}

	if center != nil {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: SamplePoint(*center).AsGeometry(),
			ID:       "position",
			Properties: map[string]interface{}{
				"kind":     "position",
				"accuracy": center.Accuracy,
			},
		})
	}

	return fc
}
