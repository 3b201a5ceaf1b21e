package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/convoq/internal/model"
)

// ExportAll returns all non-deleted analyses with their full reports,
// optionally filtered by namespace, oldest version first.
func (s *SQLiteStore) ExportAll(ctx context.Context, ns string) ([]model.Analysis, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if ns != "" {
		where = append(where, "ns = ?")
		args = append(args, ns)
	}

	query := `SELECT ` + columns + ` FROM analyses WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY ns, key, version`

	return s.query(ctx, query, args...)
}

// Import stores analyses from an export. Each entry becomes a new version
// of its ns/key, so importing in export order preserves version order.
func (s *SQLiteStore) Import(ctx context.Context, analyses []model.Analysis) (int, error) {
	imported := 0
	for _, a := range analyses {
		report := a.Report
		if report == nil {
			report = &model.Report{
				TotalMessages:  a.TotalMessages,
				Features:       a.Features,
				HealthScore:    a.HealthScore,
				Persona:        a.Persona,
				AnalysisStatus: a.Status,
			}
			if a.ToxicityRate > 0 {
				report.Toxicity = &model.ToxicityReport{
					ToxicMessages: []model.ToxicMessage{},
					ToxicityRate:  a.ToxicityRate,
				}
			}
		}
		if _, err := s.Put(ctx, PutParams{NS: a.NS, Key: a.Key, Report: report}); err != nil {
			return imported, fmt.Errorf("import %s/%s v%d: %w", a.NS, a.Key, a.Version, err)
		}
		imported++
	}
	return imported, nil
}
