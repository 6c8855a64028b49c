// Package sqlitestorage archives runs in an in-memory SQLite database.
// Writes are queued and flushed in batches by a background loop; reads flush
// first so they always see every saved run.
package sqlitestorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pathkeeper/tracker/internal/database"
	"github.com/pathkeeper/tracker/internal/model"
	"github.com/pathkeeper/tracker/internal/model/convert"
	"github.com/pathkeeper/tracker/internal/queue"
	"github.com/pathkeeper/tracker/pkg/core"
)

var ErrNotInitialized = errors.New("sqlite archive not initialized")

// Config holds configuration for the SQLite storage backend.
type Config struct {
	FlushInterval time.Duration
	HistoryLimit  int // 0 keeps every run
}

// Backend is the SQLite run archive.
type Backend struct {
	cfg     Config
	db      *database.Manager
	pending *queue.Queue[core.Run]
	log     *slog.Logger

	flushMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	ready    bool
}

func New(cfg Config, logger *slog.Logger, dbLog zerolog.Logger) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Backend{
		cfg:     cfg,
		db:      database.NewManager(dbLog),
		pending: queue.New[core.Run](),
		log:     logger,
	}
}

// Init opens the database, migrates the schema and starts the flush loop.
func (b *Backend) Init() error {
	if err := b.db.Connect(); err != nil {
		return err
	}
	if err := b.db.Setup(); err != nil {
		return err
	}

	b.flushMu.Lock()
	b.ready = true
	b.flushMu.Unlock()

	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.flushLoop()
	return nil
}

// Close stops the loop, writes what is still queued and closes the database.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()
	b.stopChan = nil

	flushErr := b.flush()

	b.flushMu.Lock()
	b.ready = false
	b.flushMu.Unlock()

	return errors.Join(flushErr, b.db.Close())
}

// SaveRun queues a run for the next flush.
func (b *Backend) SaveRun(r *core.Run) error {
	b.pending.Push(*r)
	return nil
}

// Runs flushes pending writes and returns all archived runs, oldest first.
func (b *Backend) Runs() ([]core.Run, error) {
	if err := b.flush(); err != nil {
		return nil, err
	}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	if !b.ready {
		return nil, ErrNotInitialized
	}

	var tracks []model.Track
	err := b.db.DB.
		Preload("Points").
		Preload("Places").
		Order("started_at ASC, created_at ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	runs := make([]core.Run, 0, len(tracks))
	for _, t := range tracks {
		runs = append(runs, convert.TrackToCore(t))
	}
	return runs, nil
}

func (b *Backend) flushLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.flush(); err != nil {
				b.log.Error("Error flushing run archive", "error", err)
			} else {
				b.log.Debug("Flushed run archive", "duration", time.Since(start))
			}
		}
	}
}

func (b *Backend) flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if !b.ready {
		if b.pending.Empty() {
			return nil
		}
		return ErrNotInitialized
	}

	runs := b.pending.Drain()
	if len(runs) == 0 {
		return nil
	}

	tracks := make([]model.Track, 0, len(runs))
	for _, r := range runs {
		tracks = append(tracks, convert.CoreToTrack(r))
	}

	err := b.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tracks).Error; err != nil {
			return err
		}
		return b.prune(tx)
	})
	if err != nil {
		// keep the runs for the next attempt
		b.pending.Push(runs...)
		return fmt.Errorf("failed to write %d runs: %w", len(runs), err)
	}
	b.log.Debug("Archived runs", "count", len(runs))
	return nil
}

// prune drops the oldest tracks beyond the history limit.
func (b *Backend) prune(tx *gorm.DB) error {
	if b.cfg.HistoryLimit <= 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&model.Track{}).Count(&count).Error; err != nil {
		return err
	}
	excess := int(count) - b.cfg.HistoryLimit
	if excess <= 0 {
		return nil
	}

	var ids []string
	err := tx.Model(&model.Track{}).
		Order("started_at ASC, created_at ASC").
		Limit(excess).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if err := tx.Where("track_id IN ?", ids).Delete(&model.TrackPoint{}).Error; err != nil {
		return err
	}
	if err := tx.Where("track_id IN ?", ids).Delete(&model.TrackPlace{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&model.Track{}).Error
}
