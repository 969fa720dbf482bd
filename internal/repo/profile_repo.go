// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, so callers
// can pass a handle pinned to a single connection (gorm.DB.Connection) or a
// transaction. They follow the "thin repository" approach: no business logic,
// only persistence and query composition.
//
// Error semantics:
//   - When a profile is not found, GetProfileByQRCode returns ErrNotFound.
//   - A qr_code_id unique-index violation on insert returns ErrDuplicate.
//   - Other DB errors are returned wrapped with the operation name.
//
// Functions:
//
//   - QRCodeExists(ctx, db, code) -> (bool, error)
//   - CreateProfile(ctx, db, p) -> error
//   - GetProfileByQRCode(ctx, db, code) -> *domain.Profile, error
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/qrtag-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// QRCodeExists reports whether a profile already uses code.
func QRCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("qr_code_id = ?", code).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, fmt.Errorf("check qr_code_id: %w", err)
	}
	return len(ids) > 0, nil
}

// CreateProfile inserts p. The store assigns ID, which is written back into
// p. CreatedAt defaults to now at microsecond precision so the value returned
// here equals what later reads return. A clash on qr_code_id yields
// ErrDuplicate.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfileByQRCode fetches the single profile with the given token, or
// ErrNotFound.
func GetProfileByQRCode(ctx context.Context, db *gorm.DB, code string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("qr_code_id = ?", code).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &p, nil
}
