package store

import (
	"context"
	"testing"

	"github.com/rcliao/convoq/internal/model"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	src.Put(ctx, PutParams{NS: "ns", Key: "k", Report: report(40, "x")})
	src.Put(ctx, PutParams{NS: "ns", Key: "k", Report: report(60, "y")})
	src.Put(ctx, PutParams{NS: "skip", Key: "k", Report: report(10, "z")})

	exported, err := src.ExportAll(ctx, "ns")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 2 || exported[0].Version != 1 {
		t.Fatalf("expected 2 versions oldest first, got %+v", exported)
	}
	if exported[0].Report == nil {
		t.Fatal("expected full reports in export")
	}

	dst := newTestStore(t)
	n, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}
	got, _ := dst.Get(ctx, GetParams{NS: "ns", Key: "k"})
	if got[0].Version != 2 || got[0].HealthScore != 60 || got[0].Persona != "y" {
		t.Errorf("unexpected latest after import: %+v", got[0])
	}
}

func TestImportWithoutReport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.Import(ctx, []model.Analysis{{
		NS: "ns", Key: "k", HealthScore: 42, ToxicityRate: 3, Persona: "x",
		Status: model.StatusComplete,
	}})
	if err != nil || n != 1 {
		t.Fatalf("import: %d, %v", n, err)
	}
	snaps, _ := s.Recent(ctx, "ns", "k", 1)
	if len(snaps) != 1 || snaps[0].HealthScore != 42 || snaps[0].ToxicityRate != 3 {
		t.Errorf("unexpected snapshot: %+v", snaps)
	}
}
