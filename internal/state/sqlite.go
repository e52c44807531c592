package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/panelgen/internal/blocks"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is the SQLite-backed history store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New wraps an existing connection. It does not run migrations.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open opens (creating if needed) the database at path and migrates it.
// Use MemoryPath for a throwaway database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := New(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("opened state store", slog.String("path", path))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func generateID() string {
	return uuid.New().String()
}

// RecordPanel stores p, assigning its ID and creation time.
func (s *Store) RecordPanel(ctx context.Context, p *Panel) error {
	if s.db == nil {
		return ErrNotOpen
	}

	p.ID = generateID()
	p.CreatedAt = s.now()

	s.logger.Debug("recording panel", slog.String("id", p.ID), slog.String("numbers", blocks.Key(p.Numbers)))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO panels (id, numbers, source, annotated, output_path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, blocks.Key(p.Numbers), p.Source, p.Annotated, p.OutputPath, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record panel: %w", err)
	}
	return nil
}

// RecordDownload stores d, assigning its ID and creation time.
func (s *Store) RecordDownload(ctx context.Context, d *Download) error {
	if s.db == nil {
		return ErrNotOpen
	}

	d.ID = generateID()
	d.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (id, block, status, reason, bytes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Block, d.Status, d.Reason, d.Bytes, d.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// ListPanels returns the most recent panels first. limit <= 0 means no limit.
func (s *Store) ListPanels(ctx context.Context, limit int) ([]Panel, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, numbers, source, annotated, output_path, created_at
		 FROM panels ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var panels []Panel
	for rows.Next() {
		var (
			p       Panel
			numbers string
			created int64
		)
		if err := rows.Scan(&p.ID, &numbers, &p.Source, &p.Annotated, &p.OutputPath, &created); err != nil {
			return nil, fmt.Errorf("failed to scan panel: %w", err)
		}
		p.Numbers, err = splitNumbers(numbers)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", p.ID, err)
		}
		p.CreatedAt = time.UnixMilli(created).UTC()
		panels = append(panels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	return panels, nil
}

// ListDownloads returns the most recent download attempts first. limit <= 0
// means no limit.
func (s *Store) ListDownloads(ctx context.Context, limit int) ([]Download, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, block, status, reason, bytes, created_at
		 FROM downloads ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var downloads []Download
	for rows.Next() {
		var (
			d       Download
			created int64
		)
		if err := rows.Scan(&d.ID, &d.Block, &d.Status, &d.Reason, &d.Bytes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		d.CreatedAt = time.UnixMilli(created).UTC()
		downloads = append(downloads, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	return downloads, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func splitNumbers(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "-")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid block number %q", part)
		}
		out[i] = n
	}
	return out, nil
}
