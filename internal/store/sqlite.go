package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/convoq/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id             TEXT PRIMARY KEY,
		ns             TEXT NOT NULL,
		key            TEXT NOT NULL,
		version        INTEGER NOT NULL DEFAULT 1,
		supersedes     TEXT,
		status         TEXT NOT NULL DEFAULT 'complete',
		total_messages INTEGER NOT NULL DEFAULT 0,
		health_score   REAL NOT NULL,
		toxicity_rate  REAL NOT NULL DEFAULT 0,
		persona        TEXT NOT NULL,
		features       TEXT NOT NULL,
		report         TEXT,
		created_at     TEXT NOT NULL,
		deleted_at     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_ns_key ON analyses(ns, key, version DESC);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_analyses_deleted ON analyses(deleted_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_persona ON analyses(ns, persona);
	`
	_, err := s.db.Exec(schema)
	return err
}

const columns = `id, ns, key, version, supersedes, status, total_messages,
	health_score, toxicity_rate, persona, features, report, created_at, deleted_at`

// summaryColumns leaves out the full report.
const summaryColumns = `m.id, m.ns, m.key, m.version, m.supersedes, m.status, m.total_messages,
	m.health_score, m.toxicity_rate, m.persona, m.features, NULL, m.created_at, m.deleted_at`

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*model.Analysis, error) {
	if p.NS == "" || p.Key == "" {
		return nil, fmt.Errorf("ns and key are required")
	}
	if p.Report == nil {
		return nil, fmt.Errorf("report is required")
	}
	status := p.Report.AnalysisStatus
	if status == "" {
		status = model.StatusComplete
	}
	if !model.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	featuresJSON, err := json.Marshal(p.Report.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	reportJSON, err := json.Marshal(p.Report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	now := time.Now().UTC()
	id := s.newID()
	snap := p.Report.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Check for existing latest version
	var prevID string
	var prevVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM analyses
		 WHERE ns = ? AND key = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT 1`, p.NS, p.Key).Scan(&prevID, &prevVersion)

	version := 1
	var supersedes *string
	switch {
	case err == nil:
		version = prevVersion + 1
		supersedes = &prevID
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("lookup previous version: %w", err)
	}

	// Soft-deleted versions keep their numbers.
	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(version) FROM analyses WHERE ns = ? AND key = ?`, p.NS, p.Key).Scan(&maxVersion); err != nil {
		return nil, fmt.Errorf("lookup max version: %w", err)
	}
	if maxVersion.Valid && int(maxVersion.Int64) >= version {
		version = int(maxVersion.Int64) + 1
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, ns, key, version, supersedes, status, total_messages,
		                       health_score, toxicity_rate, persona, features, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.NS, p.Key, version, supersedes, status, p.Report.TotalMessages,
		snap.HealthScore, snap.ToxicityRate, p.Report.Persona,
		string(featuresJSON), string(reportJSON), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a := &model.Analysis{
		ID:            id,
		NS:            p.NS,
		Key:           p.Key,
		Version:       version,
		Status:        status,
		TotalMessages: p.Report.TotalMessages,
		HealthScore:   snap.HealthScore,
		ToxicityRate:  snap.ToxicityRate,
		Persona:       p.Report.Persona,
		Features:      p.Report.Features,
		Report:        p.Report,
		CreatedAt:     now.Truncate(time.Second),
	}
	if supersedes != nil {
		a.Supersedes = *supersedes
	}
	return a, nil
}

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) ([]model.Analysis, error) {
	var query string
	var args []interface{}

	switch {
	case p.History:
		query = `SELECT ` + columns + ` FROM analyses
				 WHERE ns = ? AND key = ? AND deleted_at IS NULL
				 ORDER BY version DESC`
		args = []interface{}{p.NS, p.Key}
	case p.Version > 0:
		query = `SELECT ` + columns + ` FROM analyses
				 WHERE ns = ? AND key = ? AND version = ? AND deleted_at IS NULL
				 LIMIT 1`
		args = []interface{}{p.NS, p.Key, p.Version}
	default:
		query = `SELECT ` + columns + ` FROM analyses
				 WHERE ns = ? AND key = ? AND deleted_at IS NULL
				 ORDER BY version DESC LIMIT 1`
		args = []interface{}{p.NS, p.Key}
	}

	analyses, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, p.NS, p.Key)
	}
	return analyses, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, ns, key string, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, health_score, toxicity_rate, features FROM analyses
		 WHERE ns = ? AND key = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT ?`, ns, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var features string
		if err := rows.Scan(&snap.Status, &snap.HealthScore, &snap.ToxicityRate, &features); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &snap.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Analysis, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	// Only the latest live version of each ns+key
	where := []string{"m.deleted_at IS NULL"}
	var args []interface{}

	if p.NS != "" {
		where = append(where, "m.ns = ?")
		args = append(args, p.NS)
	}
	if p.Persona != "" {
		where = append(where, "m.persona = ?")
		args = append(args, p.Persona)
	}
	if p.Status != "" {
		where = append(where, "m.status = ?")
		args = append(args, p.Status)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM analyses m
		INNER JOIN (
			SELECT ns, key, MAX(version) AS max_ver
			FROM analyses WHERE deleted_at IS NULL
			GROUP BY ns, key
		) latest ON m.ns = latest.ns AND m.key = latest.key AND m.version = latest.max_ver
		WHERE %s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`, summaryColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.query(ctx, query, args...)
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	if p.Hard {
		if p.AllVersions {
			res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE ns = ? AND key = ?`, p.NS, p.Key)
			if err != nil {
				return err
			}
			return requireAffected(res, p.NS, p.Key)
		}
		id, err := s.latestID(ctx, p.NS, p.Key)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if p.AllVersions {
		res, err := s.db.ExecContext(ctx,
			`UPDATE analyses SET deleted_at = ? WHERE ns = ? AND key = ? AND deleted_at IS NULL`,
			now, p.NS, p.Key)
		if err != nil {
			return err
		}
		return requireAffected(res, p.NS, p.Key)
	}

	id, err := s.latestID(ctx, p.NS, p.Key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE analyses SET deleted_at = ? WHERE id = ?`, now, id)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) latestID(ctx context.Context, ns, key string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM analyses WHERE ns = ? AND key = ? AND deleted_at IS NULL ORDER BY version DESC LIMIT 1`,
		ns, key).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
	}
	return id, err
}

func requireAffected(res sql.Result, ns, key string) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]model.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row scanner) (model.Analysis, error) {
	var a model.Analysis
	var supersedes, report, deletedAt sql.NullString
	var features, createdAt string

	err := row.Scan(
		&a.ID, &a.NS, &a.Key, &a.Version, &supersedes, &a.Status, &a.TotalMessages,
		&a.HealthScore, &a.ToxicityRate, &a.Persona, &features, &report,
		&createdAt, &deletedAt,
	)
	if err != nil {
		return a, err
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if supersedes.Valid {
		a.Supersedes = supersedes.String
	}
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		a.DeletedAt = &t
	}
	if err := json.Unmarshal([]byte(features), &a.Features); err != nil {
		return a, fmt.Errorf("decode features of %s: %w", a.ID, err)
	}
	if report.Valid {
		a.Report = &model.Report{}
		if err := json.Unmarshal([]byte(report.String), a.Report); err != nil {
			return a, fmt.Errorf("decode report of %s: %w", a.ID, err)
		}
	}

	return a, nil
}
