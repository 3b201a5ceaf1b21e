package store

import (
	"context"
	"math"
	"os"

	"github.com/rcliao/convoq/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath          string           `json:"db_path"`
	DBSizeBytes     int64            `json:"db_size_bytes"`
	TotalAnalyses   int              `json:"total_analyses"`
	ActiveAnalyses  int              `json:"active_analyses"`
	PendingAnalyses int              `json:"pending_analyses"`
	AvgHealthScore  float64          `json:"avg_health_score"`
	Personas        map[string]int   `json:"personas"`
	Namespaces      []NamespaceStats `json:"namespaces"`
}

// NamespaceStats holds per-namespace counts.
type NamespaceStats struct {
	NS    string `json:"ns"`
	Count int    `json:"count"`
	Keys  int    `json:"keys"`
}

// Stats returns database statistics. Persona counts and the average
// health score cover the latest live analysis of each key.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Personas: map[string]int{}}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&st.TotalAnalyses)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE deleted_at IS NULL`).Scan(&st.ActiveAnalyses)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE deleted_at IS NULL AND status = ?`,
		model.StatusPendingDeep).Scan(&st.PendingAnalyses)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.persona, COUNT(*), AVG(m.health_score)
		FROM analyses m
		INNER JOIN (
			SELECT ns, key, MAX(version) AS max_ver
			FROM analyses WHERE deleted_at IS NULL
			GROUP BY ns, key
		) latest ON m.ns = latest.ns AND m.key = latest.key AND m.version = latest.max_ver
		GROUP BY m.persona`)
	if err != nil {
		return st, err
	}
	var total float64
	var keys int
	for rows.Next() {
		var persona string
		var n int
		var avg float64
		if err := rows.Scan(&persona, &n, &avg); err != nil {
			rows.Close()
			return st, err
		}
		st.Personas[persona] = n
		total += avg * float64(n)
		keys += n
	}
	rows.Close()
	if keys > 0 {
		st.AvgHealthScore = math.Round(total/float64(keys)*100) / 100
	}

	st.Namespaces, err = s.ListNamespaces(ctx)
	return st, err
}

// ListNamespaces returns live analysis counts per namespace.
func (s *SQLiteStore) ListNamespaces(ctx context.Context) ([]NamespaceStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ns, COUNT(*) as cnt, COUNT(DISTINCT key) as keys
		FROM analyses WHERE deleted_at IS NULL
		GROUP BY ns ORDER BY cnt DESC, ns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []NamespaceStats{}
	for rows.Next() {
		var ns NamespaceStats
		if err := rows.Scan(&ns.NS, &ns.Count, &ns.Keys); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
