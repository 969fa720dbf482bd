package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/qrtag-backend/internal/domain"
	"github.com/tbourn/qrtag-backend/internal/http/middleware"
	"github.com/tbourn/qrtag-backend/internal/repo"
	"github.com/tbourn/qrtag-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newProfileDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:profile_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Minimal shim implementing services.ProfileRepo using the repo package (like router.go)
type testProfileRepo struct{}

func (testProfileRepo) QRCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	return repo.QRCodeExists(ctx, db, code)
}

func (testProfileRepo) CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return repo.CreateProfile(ctx, db, p)
}

func (testProfileRepo) GetProfileByQRCode(ctx context.Context, db *gorm.DB, code string) (*domain.Profile, error) {
	return repo.GetProfileByQRCode(ctx, db, code)
}

func (testProfileRepo) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}

func (testProfileRepo) CreateIdempotency(ctx context.Context, db *gorm.DB, key, qrCodeID string, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, qrCodeID, ttl)
}

// Flexible profile service stub
type stubProfileSvc struct {
	create func(context.Context, services.CreateProfileInput, string) (*services.CreateResult, error)
	get    func(context.Context, string) (*domain.Profile, error)
}

func (s stubProfileSvc) Create(ctx context.Context, in services.CreateProfileInput, key string) (*services.CreateResult, error) {
	return s.create(ctx, in, key)
}

func (s stubProfileSvc) Get(ctx context.Context, code string) (*domain.Profile, error) {
	return s.get(ctx, code)
}

// newProfileRouter mounts the profile routes the way the router does.
func newProfileRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.FixedCORS())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}))
	r.NoRoute(NotFound)
	r.NoMethod(MethodNotAllowed)

	api := r.Group("/api/v1")
	api.POST("/profiles", h.CreateProfile)
	api.GET("/profiles", h.GetProfileByQuery)
	api.GET("/profiles/:qrCodeId", h.GetProfile)
	api.GET("/profiles/:qrCodeId/qr.png", h.QRCodePNG)
	return r
}

func newRealHandlers(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newProfileDB(t)
	svc := services.NewProfileService(db, testProfileRepo{})
	return newProfileRouter(New(svc, "https://tags.example.com/")), db
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type, Authorization" ||
		h.Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" {
		t.Fatalf("fixed CORS headers missing: %#v", h)
	}
}

// ---------- Create ----------

func TestCreateProfile_201_AndRoundTrip(t *testing.T) {
	r, db := newRealHandlers(t)

	w := do(r, http.MethodPost, "/api/v1/profiles",
		`{"fullName":"Anna Petrova","phone":"+7 900 123-45-67","telegram":"@anna"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	assertCORS(t, w)

	created := decodeMap(t, w)
	code, _ := created["qrCodeId"].(string)
	if !services.IsQRCode(code) {
		t.Fatalf("qrCodeId %q does not match the pattern", code)
	}
	if _, isStr := created["id"].(string); !isStr {
		t.Fatalf("id must be a string: %#v", created["id"])
	}
	if created["email"] != nil {
		t.Fatalf("email should be null, got %#v", created["email"])
	}
	ts, _ := created["createdAt"].(string)
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Fatalf("createdAt %q is not ISO-8601: %v", ts, err)
	}

	var before int64
	db.Model(&domain.Profile{}).Count(&before)

	g := do(r, http.MethodGet, "/api/v1/profiles/"+code, "", nil)
	if g.Code != http.StatusOK {
		t.Fatalf("GET status=%d body=%s", g.Code, g.Body.String())
	}
	if g.Body.String() != w.Body.String() {
		t.Fatalf("round trip mismatch:\nPOST %s\nGET  %s", w.Body.String(), g.Body.String())
	}

	var after int64
	db.Model(&domain.Profile{}).Count(&after)
	if after != before {
		t.Fatalf("GET must not insert: %d -> %d", before, after)
	}
}

func TestCreateProfile_ValidationNamesField(t *testing.T) {
	r, _ := newRealHandlers(t)

	cases := []struct {
		body string
		want string
	}{
		{`{"phone":"+1"}`, "fullName is required"},
		{`{"fullName":"  ","phone":"+1"}`, "fullName is required"},
		{`{"fullName":"A"}`, "phone is required"},
		{`{}`, "fullName is required"},
		{``, "fullName is required"},
		{`null`, "fullName is required"},
	}
	for _, tc := range cases {
		w := do(r, http.MethodPost, "/api/v1/profiles", tc.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", tc.body, w.Code)
		}
		m := decodeMap(t, w)
		if m["code"] != ErrCodeValidation || m["error"] != tc.want {
			t.Fatalf("body %q: got %v", tc.body, m)
		}
		assertCORS(t, w)
	}
}

func TestCreateProfile_ParseError(t *testing.T) {
	r, db := newRealHandlers(t)

	for _, body := range []string{`{"fullName":`, `not json`, `[1,2]`, `{"fullName":42,"phone":"1"}`} {
		w := do(r, http.MethodPost, "/api/v1/profiles", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
		m := decodeMap(t, w)
		if m["code"] != ErrCodeParse {
			t.Fatalf("body %q: got %v", body, m)
		}
		if msg, _ := m["error"].(string); !strings.HasPrefix(msg, "invalid request body: ") {
			t.Fatalf("body %q: error = %q", body, msg)
		}
	}

	var n int64
	db.Model(&domain.Profile{}).Count(&n)
	if n != 0 {
		t.Fatalf("parse errors must not insert, got %d rows", n)
	}
}

func TestCreateProfile_IdempotentReplay(t *testing.T) {
	r, db := newRealHandlers(t)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "order-42"}

	w1 := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`, hdr)
	w2 := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`, hdr)
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated {
		t.Fatalf("status %d / %d", w1.Code, w2.Code)
	}
	if w1.Header().Get(HeaderIdempotentReplayed) != "" {
		t.Fatalf("first response must not be a replay")
	}
	if w2.Header().Get(HeaderIdempotentReplayed) != "true" {
		t.Fatalf("second response must be marked as replay")
	}
	if w1.Body.String() != w2.Body.String() {
		t.Fatalf("replay body differs:\n%s\n%s", w1.Body.String(), w2.Body.String())
	}

	var n int64
	db.Model(&domain.Profile{}).Count(&n)
	if n != 1 {
		t.Fatalf("profiles = %d, want 1", n)
	}

	bad := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "no spaces allowed"})
	if bad.Code != http.StatusBadRequest || decodeMap(t, bad)["code"] != ErrCodeBadIdempotencyKey {
		t.Fatalf("bad key: %d %s", bad.Code, bad.Body.String())
	}
}

func TestCreateProfile_ServiceErrorIs500WithCause(t *testing.T) {
	svc := stubProfileSvc{
		create: func(context.Context, services.CreateProfileInput, string) (*services.CreateResult, error) {
			return nil, errors.New("relation \"user_profiles\" does not exist")
		},
	}
	r := newProfileRouter(New(svc, ""))

	w := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	m := decodeMap(t, w)
	if m["code"] != ErrCodeInternal || !strings.Contains(m["error"].(string), "user_profiles") {
		t.Fatalf("unexpected body %v", m)
	}
	assertCORS(t, w)
}

func TestCreateProfile_PassesNormalizedInputAndKey(t *testing.T) {
	var gotIn services.CreateProfileInput
	var gotKey string
	svc := stubProfileSvc{
		create: func(_ context.Context, in services.CreateProfileInput, key string) (*services.CreateResult, error) {
			gotIn, gotKey = in, key
			return &services.CreateResult{Profile: &domain.Profile{ID: 7, QRCodeID: "QRAAAAAAAA"}}, nil
		},
	}
	r := newProfileRouter(New(svc, ""))

	w := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1","email":"a@b.c","extra":true}`,
		map[string]string{middleware.HeaderIdempotencyKey: "k1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	if gotIn.FullName != "A" || gotIn.Phone != "1" || gotIn.Email == nil || *gotIn.Email != "a@b.c" || gotIn.Telegram != nil {
		t.Fatalf("unexpected input %+v", gotIn)
	}
	if gotKey != "k1" {
		t.Fatalf("key = %q", gotKey)
	}
	if m := decodeMap(t, w); m["id"] != "7" || m["createdAt"] != nil {
		t.Fatalf("unexpected view %v", m)
	}
}

// ---------- Get ----------

func TestGetProfile_NotFound(t *testing.T) {
	r, _ := newRealHandlers(t)

	w := do(r, http.MethodGet, "/api/v1/profiles/QRZZZZZZZZ", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	m := decodeMap(t, w)
	if m["code"] != ErrCodeNotFound || m["error"] != "profile not found" || m["request_id"] == "" {
		t.Fatalf("unexpected body %v", m)
	}
	assertCORS(t, w)
}

func TestGetProfile_QueryFallback(t *testing.T) {
	r, _ := newRealHandlers(t)

	created := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`, nil)
	code := decodeMap(t, created)["qrCodeId"].(string)

	for _, q := range []string{"qrCodeId=" + code, "qrCode=" + code} {
		w := do(r, http.MethodGet, "/api/v1/profiles?"+q, "", nil)
		if w.Code != http.StatusOK || decodeMap(t, w)["qrCodeId"] != code {
			t.Fatalf("GET ?%s -> %d %s", q, w.Code, w.Body.String())
		}
	}

	w := do(r, http.MethodGet, "/api/v1/profiles", "", nil)
	if w.Code != http.StatusBadRequest || decodeMap(t, w)["code"] != ErrCodeValidation {
		t.Fatalf("missing id: %d %s", w.Code, w.Body.String())
	}
}

// ---------- QR image ----------

func TestQRCodePNG(t *testing.T) {
	r, _ := newRealHandlers(t)

	created := do(r, http.MethodPost, "/api/v1/profiles", `{"fullName":"A","phone":"1"}`, nil)
	code := decodeMap(t, created)["qrCodeId"].(string)

	small := do(r, http.MethodGet, "/api/v1/profiles/"+code+"/qr.png?scale=2", "", nil)
	large := do(r, http.MethodGet, "/api/v1/profiles/"+code+"/qr.png", "", nil)
	for _, w := range []*httptest.ResponseRecorder{small, large} {
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("content type = %q", ct)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("CORS header missing on PNG")
		}
	}

	imgSmall, err := png.Decode(bytes.NewReader(small.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode small png: %v", err)
	}
	imgLarge, err := png.Decode(bytes.NewReader(large.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode large png: %v", err)
	}
	if imgSmall.Bounds().Dx()*4 != imgLarge.Bounds().Dx() {
		t.Fatalf("scale not applied: %d vs %d", imgSmall.Bounds().Dx(), imgLarge.Bounds().Dx())
	}

	if cd := large.Header().Get("Content-Disposition"); cd != "" {
		t.Fatalf("inline PNG should not be an attachment: %q", cd)
	}
	dl := do(r, http.MethodGet, "/api/v1/profiles/"+code+"/qr.png?download=1", "", nil)
	if cd := dl.Header().Get("Content-Disposition"); cd != `attachment; filename="`+code+`.png"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	missing := do(r, http.MethodGet, "/api/v1/profiles/QRZZZZZZZZ/qr.png", "", nil)
	if missing.Code != http.StatusNotFound || missing.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("missing profile: %d %q", missing.Code, missing.Header().Get("Content-Type"))
	}
}

func TestProfileURL(t *testing.T) {
	h := New(nil, "https://tags.example.com/")
	if got := h.ProfileURL("QRAAAAAAAA"); got != "https://tags.example.com/profile/QRAAAAAAAA" {
		t.Fatalf("ProfileURL = %q", got)
	}
}

// ---------- Method handling ----------

func TestOptionsAndUnsupportedMethods(t *testing.T) {
	r, _ := newRealHandlers(t)

	for _, p := range []string{"/api/v1/profiles", "/api/v1/profiles/QRAAAAAAAA", "/nowhere"} {
		w := do(r, http.MethodOptions, p, "", nil)
		if w.Code != http.StatusOK || w.Body.Len() != 0 {
			t.Fatalf("OPTIONS %s -> %d %q", p, w.Code, w.Body.String())
		}
		assertCORS(t, w)
	}

	for _, m := range []string{http.MethodDelete, http.MethodPut, http.MethodPatch} {
		w := do(r, m, "/api/v1/profiles", "", nil)
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s -> %d", m, w.Code)
		}
		body := decodeMap(t, w)
		if body["code"] != ErrCodeMethodNotAllowed || !strings.Contains(body["error"].(string), m) {
			t.Fatalf("%s body %v", m, body)
		}
		assertCORS(t, w)
	}

	w := do(r, http.MethodGet, "/nowhere", "", nil)
	if w.Code != http.StatusNotFound || decodeMap(t, w)["code"] != ErrCodeNotFound {
		t.Fatalf("no route: %d %s", w.Code, w.Body.String())
	}
}
