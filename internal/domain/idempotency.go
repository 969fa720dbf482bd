package domain

import "time"

// Idempotency records which profile a POST carrying a given Idempotency-Key
// produced, so that client retries return the original profile instead of
// creating a second tag.
type Idempotency struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Key       string    `gorm:"column:idempotency_key;type:varchar(200);not null;uniqueIndex:ux_profile_idempotency_key"`
	QRCodeID  string    `gorm:"column:qr_code_id;type:varchar(10);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "profile_idempotency" }
