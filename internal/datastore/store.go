// Package datastore owns the in-memory user dataset loaded from a CSV file.
//
// Every query runs as one critical section: the staleness check (and reload,
// if the file changed) followed by the query itself, under a single mutex.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/penshort/usermcp/internal/metrics"
	"github.com/penshort/usermcp/internal/model"
)

// Store errors.
var (
	ErrDataUnavailable = errors.New("data source unavailable")
	ErrDataLoadFailure = errors.New("failed to load data source")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Snapshot is the fully loaded dataset as of one reload.
type Snapshot struct {
	ID       string
	ModTime  time.Time
	LoadedAt time.Time
	Users    []model.User

	byID   map[int64]int
	folded [][3]string
}

// Page is one window of the dataset plus the total row count.
type Page struct {
	Users []model.User
	Total int
}

// Stats describes the currently loaded snapshot.
type Stats struct {
	SnapshotID string
	ModTime    time.Time
	LoadedAt   time.Time
	Rows       int
	Reloads    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for reload events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRecorder sets the metrics recorder used for reload events.
func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Store) { s.metrics = rec }
}

// Store is the single source of truth for the dataset.
type Store struct {
	path    string
	logger  *slog.Logger
	metrics metrics.Recorder

	mu            sync.Mutex
	snap          *Snapshot
	failedModTime time.Time
	reloads       uint64
}

// New creates a Store backed by the CSV file at path.
// No file access happens until the first query or EnsureFresh call.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		logger:  slog.Default(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// reloadEvent records what a staleness check did so it can be logged after
// the lock is released.
type reloadEvent struct {
	reloaded   bool
	kept       bool
	snapshotID string
	rows       int
	modTime    time.Time
	duration   time.Duration
	err        error
}

// EnsureFresh reloads the snapshot if the backing file changed since the last
// successful load. An unchanged file costs one stat call.
func (s *Store) EnsureFresh(ctx context.Context) error {
	return s.withSnapshot(ctx, func(*Snapshot) error { return nil })
}

// Paginate returns rows [(page-1)*pageSize, page*pageSize) in load order.
// A page past the end yields no rows and the full total.
func (s *Store) Paginate(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidArgument, page, pageSize)
	}

	var result *Page
	err := s.withSnapshot(ctx, func(snap *Snapshot) error {
		total := len(snap.Users)
		result = &Page{Users: []model.User{}, Total: total}

		if total == 0 || page-1 > (total-1)/pageSize {
			return nil
		}
		start := (page - 1) * pageSize
		end := min(start+pageSize, total)
		result.Users = append(result.Users, snap.Users[start:end]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the row with the given id. A miss is reported as
// (nil, false, nil). With duplicate ids in the source, the first row in
// load order wins.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.User, bool, error) {
	var (
		user  model.User
		found bool
	)
	err := s.withSnapshot(ctx, func(snap *Snapshot) error {
		i, ok := snap.byID[id]
		if ok {
			user, found = snap.Users[i], true
		}
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &user, true, nil
}

// Search returns at most limit rows whose first name, last name or email
// contains query, ignoring case. The query is matched literally.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.User, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit=%d", ErrInvalidArgument, limit)
	}
	needle := strings.ToLower(query)

	var matches []model.User
	err := s.withSnapshot(ctx, func(snap *Snapshot) error {
		matches = make([]model.User, 0, min(limit, 16))
		for i, fields := range snap.folded {
			if strings.Contains(fields[0], needle) ||
				strings.Contains(fields[1], needle) ||
				strings.Contains(fields[2], needle) {
				matches = append(matches, snap.Users[i])
				if len(matches) == limit {
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Ping fails unless a fresh snapshot can be served. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.EnsureFresh(ctx)
}

// Stats returns information about the loaded snapshot without checking freshness.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Reloads: s.reloads}
	if s.snap != nil {
		st.SnapshotID = s.snap.ID
		st.ModTime = s.snap.ModTime
		st.LoadedAt = s.snap.LoadedAt
		st.Rows = len(s.snap.Users)
	}
	return st
}

// withSnapshot runs fn against a fresh snapshot while holding the lock.
// Reload events are logged once the lock is released.
func (s *Store) withSnapshot(ctx context.Context, fn func(*Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	ev, err := s.ensureFreshLocked()
	if err == nil {
		err = fn(s.snap)
	}
	s.mu.Unlock()

	s.report(ev)
	return err
}

func (s *Store) ensureFreshLocked() (reloadEvent, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reloadEvent{}, fmt.Errorf("%w: file not found at %s", ErrDataUnavailable, s.path)
		}
		return reloadEvent{}, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	modTime := info.ModTime()
	if s.snap != nil {
		if modTime.Equal(s.snap.ModTime) {
			return reloadEvent{}, nil
		}
		// This version already failed to load once; keep serving the prior snapshot.
		if modTime.Equal(s.failedModTime) {
			return reloadEvent{}, nil
		}
	}

	start := time.Now()
	snap, err := s.load(modTime)
	ev := reloadEvent{reloaded: true, modTime: modTime, duration: time.Since(start)}
	if err != nil {
		s.failedModTime = modTime
		ev.err = err
		ev.kept = s.snap != nil
		if ev.kept {
			ev.snapshotID = s.snap.ID
		}
		return ev, fmt.Errorf("%w: %w", ErrDataLoadFailure, err)
	}

	s.snap = snap
	s.failedModTime = time.Time{}
	s.reloads++
	ev.snapshotID = snap.ID
	ev.rows = len(snap.Users)
	return ev, nil
}

func (s *Store) load(modTime time.Time) (*Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	users, err := LoadCSV(f)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:       ulid.Make().String(),
		ModTime:  modTime,
		LoadedAt: time.Now(),
		Users:    users,
		byID:     make(map[int64]int, len(users)),
		folded:   make([][3]string, len(users)),
	}
	for i, u := range users {
		if _, dup := snap.byID[u.ID]; !dup {
			snap.byID[u.ID] = i
		}
		snap.folded[i] = [3]string{
			strings.ToLower(u.FirstName),
			strings.ToLower(u.LastName),
			strings.ToLower(u.Email),
		}
	}
	return snap, nil
}

func (s *Store) report(ev reloadEvent) {
	if !ev.reloaded {
		return
	}

	if ev.err != nil {
		s.metrics.IncDataReload(metrics.StatusError)
		s.logger.Error("data source reload failed",
			slog.String("path", s.path),
			slog.String("error", ev.err.Error()),
			slog.Time("mod_time", ev.modTime),
			slog.Bool("serving_previous", ev.kept),
			slog.String("snapshot_id", ev.snapshotID),
		)
		return
	}

	s.metrics.IncDataReload(metrics.StatusSuccess)
	s.logger.Info("data source reloaded",
		slog.String("path", s.path),
		slog.String("snapshot_id", ev.snapshotID),
		slog.Int("rows", ev.rows),
		slog.Time("mod_time", ev.modTime),
		slog.Float64("duration_ms", float64(ev.duration.Microseconds())/1000),
	)
}
