package domain

import (
	"encoding/json"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func strp(s string) *string { return &s }

func TestTableNames(t *testing.T) {
	if (Profile{}).TableName() != "user_profiles" {
		t.Fatalf("Profile.TableName() = %q; want %q", (Profile{}).TableName(), "user_profiles")
	}
	if (Idempotency{}).TableName() != "profile_idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", (Idempotency{}).TableName())
	}
}

func TestMigrations_ColumnsAndUniqueIndex(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Profile{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, col := range []string{"id", "qr_code_id", "full_name", "phone", "telegram", "email", "created_at"} {
		if !m.HasColumn(&Profile{}, col) {
			t.Fatalf("expected column %s on user_profiles", col)
		}
	}
	if !m.HasIndex(&Profile{}, "ux_user_profiles_qr_code_id") {
		t.Fatalf("expected unique index on qr_code_id")
	}
	if !m.HasIndex(&Idempotency{}, "ux_profile_idempotency_key") {
		t.Fatalf("expected unique index on idempotency_key")
	}

	// Store fills id and created_at.
	p := &Profile{QRCodeID: "QRAAAA1111", FullName: "Anna", Phone: "+100"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if p.ID == 0 || p.CreatedAt.IsZero() {
		t.Fatalf("expected generated id/created_at, got %+v", p)
	}

	// Unique qr_code_id is enforced.
	dup := &Profile{QRCodeID: "QRAAAA1111", FullName: "Boris", Phone: "+200"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on qr_code_id")
	}

	// Optional columns round-trip as NULL.
	var got Profile
	if err := db.First(&got, "qr_code_id = ?", "QRAAAA1111").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Telegram != nil || got.Email != nil {
		t.Fatalf("expected NULL telegram/email, got %v %v", got.Telegram, got.Email)
	}
}

func TestProfileView_Projection(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	p := Profile{
		ID:        42,
		QRCodeID:  "QR7K2M9XQA",
		FullName:  "Anna Petrova",
		Phone:     "+7 900 123-45-67",
		Telegram:  strp("@anna"),
		CreatedAt: created,
	}

	v := p.View()
	if v.ID != "42" || v.QRCodeID != "QR7K2M9XQA" || v.FullName != "Anna Petrova" || v.Phone != "+7 900 123-45-67" {
		t.Fatalf("scalar fields mismatch: %+v", v)
	}
	if v.Telegram == nil || *v.Telegram != "@anna" {
		t.Fatalf("telegram mismatch: %v", v.Telegram)
	}
	if v.Email != nil {
		t.Fatalf("email should be nil")
	}
	if v.CreatedAt == nil || *v.CreatedAt != "2024-05-01T09:30:00Z" {
		t.Fatalf("createdAt should be UTC RFC3339, got %v", v.CreatedAt)
	}
}

func TestProfileView_JSONShape(t *testing.T) {
	b, err := json.Marshal(Profile{ID: 7, QRCodeID: "QR00000000", FullName: "A", Phone: "1"}.View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"id", "qrCodeId", "fullName", "phone", "telegram", "email", "createdAt"}
	if len(m) != len(want) {
		t.Fatalf("expected exactly %d keys, got %v", len(want), m)
	}
	for _, k := range want {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if m["id"] != "7" {
		t.Fatalf("id must be a string, got %#v", m["id"])
	}
	for _, k := range []string{"telegram", "email", "createdAt"} {
		if m[k] != nil {
			t.Fatalf("%s should be null, got %#v", k, m[k])
		}
	}
}
