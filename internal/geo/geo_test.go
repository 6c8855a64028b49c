package geo

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pathkeeper/tracker/pkg/core"
)

func TestValidate_Valid(t *testing.T) {
	if err := Validate(52.52, 13.405, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(-90, -180, 0); err != nil {
		t.Fatalf("unexpected error at range edge: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string][3]float64{
		"nan latitude":        {math.NaN(), 0, 1},
		"nan longitude":       {0, math.NaN(), 1},
		"inf latitude":        {math.Inf(1), 0, 1},
		"latitude too big":    {90.01, 0, 1},
		"longitude too big":   {0, 180.5, 1},
		"negative accuracy":   {0, 0, -1},
		"nan accuracy":        {0, 0, math.NaN()},
		"longitude too small": {0, -181, 1},
	}

	for name, c := range cases {
		err := Validate(c[0], c[1], c[2])
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%s: expected ErrInvalidCoordinates, got %v", name, err)
		}
	}
}

func TestDistanceMeters_OneDegreeLatitude(t *testing.T) {
	a := core.GeoSample{Latitude: 0, Longitude: 0}
	b := core.GeoSample{Latitude: 1, Longitude: 0}

	d := DistanceMeters(a, b)
	want := math.Pi / 180 * EarthRadiusMeters
	if math.Abs(d-want) > 1 {
		t.Errorf("expected ~%f m, got %f", want, d)
	}
}

func TestPathLengthMeters(t *testing.T) {
	path := []core.GeoSample{
		{Latitude: 0, Longitude: 0},
		{Latitude: 1, Longitude: 0},
		{Latitude: 2, Longitude: 0},
	}

	got := PathLengthMeters(path)
	want := 2 * math.Pi / 180 * EarthRadiusMeters
	if math.Abs(got-want) > 2 {
		t.Errorf("expected ~%f m, got %f", want, got)
	}

	if PathLengthMeters(path[:1]) != 0 {
		t.Error("single point path should have zero length")
	}
	if PathLengthMeters(nil) != 0 {
		t.Error("empty path should have zero length")
	}
}

func TestWebMercator_Origin(t *testing.T) {
	x, y := WebMercator(0, 0)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("expected origin, got %f,%f", x, y)
	}
}

func TestWebMercator_Antimeridian(t *testing.T) {
	x, _ := WebMercator(0, 180)
	if math.Abs(x-mercatorOrigin) > 0.01 {
		t.Errorf("expected x=%f, got %f", mercatorOrigin, x)
	}
}

func TestTileXY(t *testing.T) {
	tx, ty := TileXY(0, 0, 0)
	if tx != 0 || ty != 0 {
		t.Errorf("zoom 0 should be a single tile, got %d,%d", tx, ty)
	}

	tx, ty = TileXY(10, 10, 1)
	if tx != 1 || ty != 0 {
		t.Errorf("expected tile 1,0 got %d,%d", tx, ty)
	}

	tx, _ = TileXY(52.52, 13.405, DefaultZoom)
	if tx != 17604 {
		t.Errorf("expected x tile 17604, got %d", tx)
	}

	tx, _ = TileXY(0, 180, 2)
	if tx != 3 {
		t.Errorf("antimeridian should clamp to last tile, got %d", tx)
	}
}

func TestPathLineString_TooShort(t *testing.T) {
	if _, ok := PathLineString(nil); ok {
		t.Error("expected no line for empty path")
	}
	if _, ok := PathLineString([]core.GeoSample{{Latitude: 1, Longitude: 2}}); ok {
		t.Error("expected no line for single point")
	}
}

func TestPathLineString_LonLatOrder(t *testing.T) {
	ls, ok := PathLineString([]core.GeoSample{
		{Latitude: 1, Longitude: 2},
		{Latitude: 3, Longitude: 4},
	})
	if !ok {
		t.Fatal("expected a line")
	}

	seq := ls.Coordinates()
	if seq.Length() != 2 {
		t.Fatalf("expected 2 points, got %d", seq.Length())
	}
	first := seq.GetXY(0)
	if first.X != 2 || first.Y != 1 {
		t.Errorf("expected X=lon=2 Y=lat=1, got %v", first)
	}
}

func TestFeatureCollection(t *testing.T) {
	center := core.GeoSample{Latitude: 3, Longitude: 4, Accuracy: 7}
	fc := FeatureCollection(
		&center,
		[]core.GeoSample{{Latitude: 1, Longitude: 2}, center},
		[]core.NamedPlace{{Latitude: 3, Longitude: 4, Label: "Cafe"}},
	)

	if len(fc) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc))
	}

	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(raw)
	for _, want := range []string{`"FeatureCollection"`, `"LineString"`, `"Point"`, `"Cafe"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestFeatureCollection_NoCenterNoPath(t *testing.T) {
	fc := FeatureCollection(nil, nil, nil)
	if len(fc) != 0 {
		t.Errorf("expected empty collection, got %d", len(fc))
	}
}
