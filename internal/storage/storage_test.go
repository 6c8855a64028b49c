package storage_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathkeeper/tracker/internal/config"
	"github.com/pathkeeper/tracker/internal/storage"
	"github.com/pathkeeper/tracker/internal/storage/memory"
	sqlitestorage "github.com/pathkeeper/tracker/internal/storage/sqlite"
	"github.com/pathkeeper/tracker/pkg/core"
)

var (
	_ storage.Backend = (*memory.Backend)(nil)
	_ storage.Backend = (*sqlitestorage.Backend)(nil)
)

func TestRunFromSnapshot(t *testing.T) {
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	ended := started.Add(20 * time.Minute)
	snap := core.Snapshot{
		StartedAt: started,
		Path: []core.GeoSample{
			{Latitude: 52.50, Longitude: 13.40},
			{Latitude: 52.51, Longitude: 13.40},
		},
		Places: []core.NamedPlace{{Latitude: 52.51, Longitude: 13.40, Label: "Cafe"}},
	}

	run := storage.RunFromSnapshot(snap, ended)

	_, err := uuid.Parse(run.ID)
	assert.NoError(t, err)
	assert.Equal(t, started, run.StartedAt)
	assert.Equal(t, ended, run.EndedAt)
	assert.Len(t, run.Path, 2)
	assert.Equal(t, "Cafe", run.Places[0].Label)
	assert.InDelta(t, 1112, run.PathLengthMeters, 5)

	assert.NotEqual(t, run.ID, storage.RunFromSnapshot(snap, ended).ID)
}

func TestNewBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		typ     string
		want    any
		wantErr bool
	}{
		{"default", "", &memory.Backend{}, false},
		{"memory", "memory", &memory.Backend{}, false},
		{"sqlite", "sqlite", &sqlitestorage.Backend{}, false},
		{"unknown", "postgres", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{
				Type:         tt.typ,
				HistoryLimit: 5,
				SQLite:       config.SQLiteConfig{FlushInterval: time.Second},
			}, logger, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}
