// Package model holds the GORM schema of the run archive.
package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels lists every table of the archive schema.
var DatabaseModels = []interface{}{
	&Track{},
	&TrackPoint{},
	&TrackPlace{},
}

// Track is one archived tracking run.
type Track struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	StartedAt   time.Time      `json:"startedAt" gorm:"index:idx_track_started_at"`
	EndedAt     time.Time      `json:"endedAt"`
	PathLengthM float64        `json:"pathLengthM"`
	GeoJSON     datatypes.JSON `json:"geojson"` // FeatureCollection of path and places
	Points      []TrackPoint   `json:"points" gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE"`
	Places      []TrackPlace   `json:"places" gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (*Track) TableName() string {
	return "tracks"
}

// TrackPoint is one recorded sample of a track.
type TrackPoint struct {
	ID       uint       `json:"id" gorm:"primarykey;autoIncrement"`
	TrackID  string     `json:"trackId" gorm:"size:36;index:idx_trackpoint_track_seq,priority:1"`
	Seq      int        `json:"seq" gorm:"index:idx_trackpoint_track_seq,priority:2"`
	Position geom.Point `json:"position" gorm:"type:blob"` // WKB, x = lon
	Accuracy float64    `json:"accuracy"`
	Time     time.Time  `json:"time"`
	Provider string     `json:"provider" gorm:"size:32"`
}

func (*TrackPoint) TableName() string {
	return "track_points"
}

// TrackPlace is a named place captured during a track.
type TrackPlace struct {
	ID       uint       `json:"id" gorm:"primarykey;autoIncrement"`
	TrackID  string     `json:"trackId" gorm:"size:36;index:idx_trackplace_track_id"`
	Seq      int        `json:"seq"`
	Position geom.Point `json:"position" gorm:"type:blob"`
	Label    string     `json:"label" gorm:"size:255"`
}

func (*TrackPlace) TableName() string {
	return "track_places"
}
