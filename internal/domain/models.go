// Package domain defines the persistence models for QR-tag profiles and the
// JSON projection served to clients. These types are mapped with GORM and
// form the core data layer of the application.
package domain

import (
	"strconv"
	"time"
)

// Profile is the contact card attached to a printed QR tag. It is created
// once, never updated or deleted, and read by scanning the tag.
//
// Fields:
//   - ID: server-generated primary key.
//   - QRCodeID: public lookup token, "QR" followed by 8 of [A-Z0-9]; unique.
//   - FullName / Phone: required contact details.
//   - Telegram / Email: optional; nil means the client did not send them.
//   - CreatedAt: set at insert.
type Profile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	QRCodeID  string    `gorm:"column:qr_code_id;type:varchar(10);not null;uniqueIndex:ux_user_profiles_qr_code_id"`
	FullName  string    `gorm:"column:full_name;type:text;not null"`
	Phone     string    `gorm:"column:phone;type:varchar(64);not null"`
	Telegram  *string   `gorm:"column:telegram;type:text"`
	Email     *string   `gorm:"column:email;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "user_profiles" }

// ProfileView is the external JSON shape of a Profile. Optional values are
// pointers so that absent fields serialize as null rather than "".
type ProfileView struct {
	ID        string  `json:"id"        example:"42"`
	QRCodeID  string  `json:"qrCodeId"  example:"QR7K2M9XQA"`
	FullName  string  `json:"fullName"  example:"Anna Petrova"`
	Phone     string  `json:"phone"     example:"+7 900 123-45-67"`
	Telegram  *string `json:"telegram"  example:"@anna"`
	Email     *string `json:"email"     example:"anna@example.com"`
	CreatedAt *string `json:"createdAt" example:"2024-05-01T12:00:00Z"`
}

// View projects p into its external JSON shape. CreatedAt is rendered as an
// RFC 3339 timestamp in UTC, or null when the row carries none.
func (p Profile) View() ProfileView {
	v := ProfileView{
		ID:       strconv.FormatInt(p.ID, 10),
		QRCodeID: p.QRCodeID,
		FullName: p.FullName,
		Phone:    p.Phone,
		Telegram: p.Telegram,
		Email:    p.Email,
	}
	if !p.CreatedAt.IsZero() {
		ts := p.CreatedAt.UTC().Format(time.RFC3339Nano)
		v.CreatedAt = &ts
	}
	return v
}
