package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS area_maps (
	id         TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS connections (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	data BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS decisions (
	session TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	data    TEXT NOT NULL,
	PRIMARY KEY (session, seq)
);
`

// SQLiteStorage implements the Storage interface on a single local
// database file. Area map and graph payloads are zstd-compressed JSON;
// traversal grids compress extremely well.
type SQLiteStorage struct {
	db      *sql.DB
	logger  *slog.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Ensure SQLiteStorage implements Storage interface
var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (creating if needed) the database at path.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// modernc sqlite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &SQLiteStorage{db: db, logger: logger, encoder: enc, decoder: dec}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close sqlite db", "error", err)
		return err
	}
	return nil
}

// Area map operations

func (s *SQLiteStorage) SaveAreaMap(ctx context.Context, m *tilemap.AreaMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal area map: %w", err)
	}
	blob := s.encoder.EncodeAll(data, nil)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO area_maps (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(m.ID), blob, m.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if err != nil {
		s.logger.Error("Failed to save area map", "area", m.ID, "error", err)
		return fmt.Errorf("failed to save area map: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadAreaMap(ctx context.Context, id tilemap.AreaID) (*tilemap.AreaMap, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM area_maps WHERE id = ?`, string(id)).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil // Never visited
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load area map: %w", err)
	}

	data, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress area map: %w", err)
	}

	var m tilemap.AreaMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal area map: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStorage) ListAreaMaps(ctx context.Context) ([]tilemap.AreaID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM area_maps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list area maps: %w", err)
	}
	defer rows.Close()

	var ids []tilemap.AreaID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan area map id: %w", err)
		}
		ids = append(ids, tilemap.AreaID(id))
	}
	return ids, rows.Err()
}

// Connectivity graph operations

func (s *SQLiteStorage) SaveGraph(ctx context.Context, g *navgraph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	blob := s.encoder.EncodeAll(data, nil)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO connections (id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`, blob)
	if err != nil {
		s.logger.Error("Failed to save graph", "error", err)
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadGraph(ctx context.Context) (*navgraph.Graph, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM connections WHERE id = 1`).Scan(&blob)
	if err == sql.ErrNoRows {
		return navgraph.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	data, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress graph: %w", err)
	}

	g := navgraph.New()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return g, nil
}

// Decision record operations

func (s *SQLiteStorage) AppendDecision(ctx context.Context, d *Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decisions (session, seq, data) VALUES (?, ?, ?)`,
		d.Session, d.Number, string(data))
	if err != nil {
		s.logger.Error("Failed to append decision", "session", d.Session, "error", err)
		return fmt.Errorf("failed to append decision: %w", err)
	}

	// Keep the per-session history bounded, matching the Redis backend.
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE session = ? AND seq <= (
			SELECT MAX(seq) FROM decisions WHERE session = ?
		) - ?`, d.Session, d.Session, DecisionHistoryCap)
	if err != nil {
		s.logger.Warn("Failed to trim decision history", "session", d.Session, "error", err)
	}
	return nil
}

func (s *SQLiteStorage) RecentDecisions(ctx context.Context, sessionID string, n int) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM decisions WHERE session = ? ORDER BY seq DESC LIMIT ?`,
		sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		var d Decision
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			s.logger.Warn("Skipping malformed decision record", "session", sessionID, "error", err)
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
