package convert

import (
	"encoding/json"
	"testing"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathkeeper/tracker/internal/model"
	"github.com/pathkeeper/tracker/pkg/core"
)

func testRun() core.Run {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return core.Run{
		ID:        "run-1",
		StartedAt: t0,
		EndedAt:   t0.Add(time.Minute),
		Path: []core.GeoSample{
			{Latitude: 52.52, Longitude: 13.40, Accuracy: 5, Timestamp: t0, Provider: "gps"},
			{Latitude: 52.53, Longitude: 13.41, Accuracy: 7, Timestamp: t0.Add(30 * time.Second), Provider: "gps"},
		},
		Places:           []core.NamedPlace{{Latitude: 52.53, Longitude: 13.41, Label: "Cafe"}},
		PathLengthMeters: 1300,
	}
}

func TestCoreToTrack(t *testing.T) {
	track := CoreToTrack(testRun())

	assert.Equal(t, "run-1", track.ID)
	assert.Equal(t, 1300.0, track.PathLengthM)
	require.Len(t, track.Points, 2)
	require.Len(t, track.Places, 1)

	assert.Equal(t, 1, track.Points[1].Seq)
	assert.Equal(t, "run-1", track.Points[1].TrackID)
	coord, ok := track.Points[0].Position.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 13.40, coord.XY.X, "x is longitude")
	assert.Equal(t, 52.52, coord.XY.Y, "y is latitude")

	assert.Equal(t, "Cafe", track.Places[0].Label)

	var fc map[string]any
	require.NoError(t, json.Unmarshal(track.GeoJSON, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
}

func TestTrackToCore_RoundTrip(t *testing.T) {
	run := testRun()
	got := TrackToCore(CoreToTrack(run))

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Path, got.Path)
	assert.Equal(t, run.Places, got.Places)
	assert.Equal(t, run.PathLengthMeters, got.PathLengthMeters)
}

func TestTrackToCore_SortsBySeq(t *testing.T) {
	track := model.Track{
		ID: "x",
		Points: []model.TrackPoint{
			{Seq: 1, Position: geom.NewPoint(geom.Coordinates{XY: geom.XY{X: 2, Y: 2}, Type: geom.DimXY})},
			{Seq: 0, Position: geom.NewPoint(geom.Coordinates{XY: geom.XY{X: 1, Y: 1}, Type: geom.DimXY})},
		},
	}

	run := TrackToCore(track)
	require.Len(t, run.Path, 2)
	assert.Equal(t, 1.0, run.Path[0].Latitude)
	assert.Equal(t, 2.0, run.Path[1].Latitude)
	assert.Empty(t, run.Places)
}

func TestPointToLatLon_Empty(t *testing.T) {
	lat, lon := pointToLatLon(geom.Point{})
	assert.Zero(t, lat)
	assert.Zero(t, lon)
}
