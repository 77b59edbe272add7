package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RunService records and queries pipeline runs
type RunService struct {
	db *gorm.DB
}

// NewRunService creates a new run service
func NewRunService(db *gorm.DB) *RunService {
	return &RunService{db: db}
}

// Record stores a finished run
func (s *RunService) Record(ctx context.Context, run *Run) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (s *RunService) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	var runs []Run
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// RunStats summarizes the run history
type RunStats struct {
	TotalRuns     int64            `json:"total_runs"`
	SavedRuns     int64            `json:"saved_runs"`
	BySource      map[string]int64 `json:"by_source"`
	AvgDurationMS float64          `json:"avg_duration_ms"`
}

// Stats returns aggregate statistics over all runs
func (s *RunService) Stats(ctx context.Context) (*RunStats, error) {
	db := s.db.WithContext(ctx)
	stats := &RunStats{BySource: make(map[string]int64)}

	if err := db.Model(&Run{}).Count(&stats.TotalRuns).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&Run{}).Where("saved = ?", true).Count(&stats.SavedRuns).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		PaletteSource string
		Count         int64
	}
	if err := db.Model(&Run{}).
		Select("palette_source, count(*) as count").
		Group("palette_source").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.BySource[row.PaletteSource] = row.Count
	}

	if stats.TotalRuns > 0 {
		if err := db.Model(&Run{}).Select("AVG(duration_ms)").Scan(&stats.AvgDurationMS).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}
