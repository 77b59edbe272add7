package database

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { closeDB(db) })
	return db
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open(&DatabaseConfig{Type: "oracle"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		db, err := Open(&DatabaseConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("Open() pass %d error = %v", i, err)
		}
		if !db.Migrator().HasTable(&Run{}) {
			t.Errorf("runs table missing after pass %d", i)
		}
		closeDB(db)
	}
}

func TestRunServiceRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	svc := NewRunService(openTestDB(t))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		run := &Run{ImagePath: name, PaletteSource: "kmeans", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := run.SetPalette([]string{"000000", "FFFFFF"}); err != nil {
			t.Fatal(err)
		}
		if err := svc.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if run.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("Record() did not assign an ID")
		}
	}

	runs, err := svc.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ImagePath != "c.png" || runs[1].ImagePath != "b.png" {
		t.Fatalf("Recent() = %+v", runs)
	}

	hex, err := runs[0].PaletteHex()
	if err != nil {
		t.Fatal(err)
	}
	if len(hex) != 2 || hex[1] != "FFFFFF" || runs[0].Colors != 2 {
		t.Errorf("palette = %v colors = %d", hex, runs[0].Colors)
	}
}

func TestRunServiceStats(t *testing.T) {
	ctx := context.Background()
	svc := NewRunService(openTestDB(t))

	empty, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() on empty history error = %v", err)
	}
	if empty.TotalRuns != 0 || empty.AvgDurationMS != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	runs := []*Run{
		{ImagePath: "a.png", PaletteSource: "kmeans", DurationMS: 100, Saved: true},
		{ImagePath: "b.png", PaletteSource: "file", DurationMS: 300, Saved: true},
		{ImagePath: "c.png", PaletteSource: "kmeans", DurationMS: 200},
	}
	for _, r := range runs {
		if err := svc.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalRuns != 3 || stats.SavedRuns != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BySource["kmeans"] != 2 || stats.BySource["file"] != 1 {
		t.Errorf("BySource = %v", stats.BySource)
	}
	if stats.AvgDurationMS != 200 {
		t.Errorf("AvgDurationMS = %v, want 200", stats.AvgDurationMS)
	}
}

func TestInitializeUsesEnvironment(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATA_DIR", t.TempDir())

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if DB == nil {
		t.Fatal("DB not set")
	}
	if err := Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if DB != nil {
		t.Error("DB should be nil after Close")
	}
}
