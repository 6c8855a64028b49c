// Package influx ships session telemetry to InfluxDB, or to a gzip
// line-protocol backup when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/pathkeeper/tracker/internal/config"
	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
	"github.com/rs/zerolog"
)

// SessionMeasurement is the measurement written for each status tick.
const SessionMeasurement = "session"

// retention for a bucket the manager creates
const bucketRetention = 60 * 60 * 24 * 30

var (
	ErrDisabled  = errors.New("influx is disabled")
	ErrNoBackend = errors.New("influx not connected and no backup writer")
)

// Manager owns the client and the single bucket writer.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Config       config.InfluxConfig
	Logger       zerolog.Logger

	backup io.Writer
	mu     sync.Mutex
}

// NewManager prepares a manager. backup receives gzip line protocol when the
// server cannot be reached; nil disables the fallback.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backup io.Writer) *Manager {
	return &Manager{
		Config: cfg,
		Logger: log,
		backup: backup,
	}
}

func (m *Manager) serverURL() string {
	return fmt.Sprintf("%s://%s:%s", m.Config.Protocol, m.Config.Host, m.Config.Port)
}

// Connect pings the server. On success the org and bucket are ensured and a
// writer is created; otherwise the manager falls back to the backup writer.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.Config.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.serverURL(),
		m.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		if m.backup == nil {
			return fmt.Errorf("influx unreachable at %s: %w", m.serverURL(), ErrNoBackend)
		}
		if m.BackupWriter == nil {
			m.BackupWriter = gzip.NewWriter(m.backup)
		}
		m.Logger.Warn().Err(err).Str("url", m.serverURL()).
			Msg("InfluxDB unreachable, writing to backup")
		return nil
	}

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Str("bucket", m.Config.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) ensureBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.Config.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.Config.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.Config.Org)
		if err != nil {
			return fmt.Errorf("create organization %s: %w", m.Config.Org, err)
		}
	}

	buckets := m.Client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, m.Config.Bucket); err == nil {
		return nil
	}
	m.Logger.Info().Str("bucket", m.Config.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = buckets.CreateBucketWithName(ctx, org, m.Config.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: bucketRetention,
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", m.Config.Bucket, err)
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.Config.Org, m.Config.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.Config.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())
	m.Logger.Debug().Msg("InfluxDB writer created")
}

// WritePoint queues the point on the writer, or appends it to the backup.
func (m *Manager) WritePoint(_ context.Context, point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return ErrNoBackend
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write influx backup: %w", err)
	}
	return nil
}

// Close flushes pending points and finishes the backup stream.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		err := m.BackupWriter.Close()
		m.BackupWriter = nil
		return err
	}
	return nil
}

// SessionPoint describes the session at t: counts, path length, elapsed time
// and the last known position when there is one.
func SessionPoint(snap core.Snapshot, t time.Time) *influxdb2_write.Point {
	active := "false"
	if snap.Active {
		active = "true"
	}
	p := influxdb2_write.NewPointWithMeasurement(SessionMeasurement).
		AddTag("active", active).
		AddField("points", len(snap.Path)).
		AddField("places", len(snap.Places)).
		AddField("pathLengthM", geo.PathLengthMeters(snap.Path)).
		AddField("elapsedS", snap.Elapsed.Seconds()).
		SetTime(t)
	if last := snap.LastKnown; last != nil {
		p.AddField("lat", last.Latitude).
			AddField("lon", last.Longitude).
			AddField("accuracy", last.Accuracy)
		if last.Provider != "" {
			p.AddTag("provider", last.Provider)
		}
	}
	return p
}
