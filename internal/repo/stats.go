// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries over the profile
// table, reported by the readiness endpoint.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/qrtag-backend/internal/domain"
)

// ProfileStats summarizes the profile table.
type ProfileStats struct {
	Count         int64
	LastCreatedAt *time.Time
}

// GetProfileStats returns the number of stored profiles and the newest
// created_at, which is nil for an empty table.
func GetProfileStats(ctx context.Context, db *gorm.DB) (ProfileStats, error) {
	var st ProfileStats
	q := db.WithContext(ctx).Model(&domain.Profile{})

	if err := q.Count(&st.Count).Error; err != nil {
		return ProfileStats{}, fmt.Errorf("count profiles: %w", err)
	}
	if st.Count == 0 {
		return st, nil
	}

	// Latest row instead of MAX(): SQLite returns MAX(created_at) as TEXT.
	var row struct {
		CreatedAt time.Time
	}
	if err := db.WithContext(ctx).Model(&domain.Profile{}).
		Select("created_at").
		Order("created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return ProfileStats{}, fmt.Errorf("latest profile: %w", err)
	}
	ts := row.CreatedAt.UTC()
	st.LastCreatedAt = &ts
	return st, nil
}
