// Package convert maps between archive models and core values.
package convert

import (
	"encoding/json"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/internal/model"
	"github.com/pathkeeper/tracker/pkg/core"
)

// pointToLatLon reads a lon/lat point. Empty points give 0,0.
func pointToLatLon(p geom.Point) (lat, lon float64) {
	coord, ok := p.Coordinates()
	if !ok {
		return 0, 0
	}
	return coord.XY.Y, coord.XY.X
}

// CoreToTrack converts a run into its archive rows.
func CoreToTrack(r core.Run) model.Track {
	t := model.Track{
		ID:          r.ID,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
		PathLengthM: r.PathLengthMeters,
		Points:      make([]model.TrackPoint, 0, len(r.Path)),
		Places:      make([]model.TrackPlace, 0, len(r.Places)),
	}

	for i, s := range r.Path {
		t.Points = append(t.Points, model.TrackPoint{
			TrackID:  r.ID,
			Seq:      i,
			Position: geo.SamplePoint(s),
			Accuracy: s.Accuracy,
			Time:     s.Timestamp,
			Provider: s.Provider,
		})
	}
	for i, p := range r.Places {
		t.Places = append(t.Places, model.TrackPlace{
			TrackID:  r.ID,
			Seq:      i,
			Position: geo.PlacePoint(p),
			Label:    p.Label,
		})
	}

	t.GeoJSON = datatypes.JSON("{}")
	if data, err := json.Marshal(geo.FeatureCollection(nil, r.Path, r.Places)); err == nil {
		t.GeoJSON = datatypes.JSON(data)
	}
	return t
}

// TrackToCore converts archive rows back into a run, ordering points and
// places by sequence.
func TrackToCore(t model.Track) core.Run {
	points := append([]model.TrackPoint(nil), t.Points...)
	sort.Slice(points, func(i, j int) bool { return points[i].Seq < points[j].Seq })
	places := append([]model.TrackPlace(nil), t.Places...)
	sort.Slice(places, func(i, j int) bool { return places[i].Seq < places[j].Seq })

	r := core.Run{
		ID:               t.ID,
		StartedAt:        t.StartedAt,
		EndedAt:          t.EndedAt,
		PathLengthMeters: t.PathLengthM,
		Path:             make([]core.GeoSample, 0, len(points)),
		Places:           make([]core.NamedPlace, 0, len(places)),
	}
	for _, p := range points {
		lat, lon := pointToLatLon(p.Position)
		r.Path = append(r.Path, core.GeoSample{
			Latitude:  lat,
			Longitude: lon,
			Accuracy:  p.Accuracy,
			Timestamp: p.Time,
			Provider:  p.Provider,
		})
	}
	for _, p := range places {
		lat, lon := pointToLatLon(p.Position)
		r.Places = append(r.Places, core.NamedPlace{Latitude: lat, Longitude: lon, Label: p.Label})
	}
	return r
}
