// Package services – ProfileService
//
// This file implements ProfileService, which owns the two profile use-cases:
// creating a profile under a freshly generated, collision-free QR-code ID and
// looking a profile up by that ID.
//
// Every call pins exactly one store connection for its whole duration
// (gorm.DB.Connection) and releases it on every exit path, including
// validation failures, store errors and panics.
//
// Observability: public methods are OpenTelemetry-instrumented and feed the
// Prometheus counters in metrics.go.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/qrtag-backend/internal/domain"
	"github.com/tbourn/qrtag-backend/internal/errs"
	"github.com/tbourn/qrtag-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttempts bounds the QR-code generation loop.
const DefaultMaxAttempts = 1000

// ProfileRepo defines the repository contract required by ProfileService.
// Every method receives the connection-pinned handle of the current call.
type ProfileRepo interface {
	// QRCodeExists reports whether a profile already uses code.
	QRCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error)

	// CreateProfile inserts p and fills its store-generated fields.
	CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error

	// GetProfileByQRCode returns the profile with code or repo.ErrNotFound.
	GetProfileByQRCode(ctx context.Context, db *gorm.DB, code string) (*domain.Profile, error)

	// GetIdempotency returns a live record for key or repo.ErrNotFound.
	GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency records that key produced qrCodeID.
	CreateIdempotency(ctx context.Context, db *gorm.DB, key, qrCodeID string, ttl time.Duration) (*domain.Idempotency, error)
}

// ProfileService provides profile creation and lookup.
type ProfileService struct {
	// DB is the connection factory; each call pins one connection from it.
	DB *gorm.DB
	// Repo is the profile repository used by this service.
	Repo ProfileRepo

	// NewCode draws a candidate QR-code ID. Defaults to NewQRCode.
	NewCode func() (string, error)
	// MaxAttempts bounds the generate-check-insert loop. Defaults to
	// DefaultMaxAttempts.
	MaxAttempts int
	// IdempotencyTTL is how long an Idempotency-Key keeps replaying.
	IdempotencyTTL time.Duration
}

// NewProfileService constructs a ProfileService with defaults.
func NewProfileService(db *gorm.DB, r ProfileRepo) *ProfileService {
	return &ProfileService{
		DB:             db,
		Repo:           r,
		NewCode:        NewQRCode,
		MaxAttempts:    DefaultMaxAttempts,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// CreateResult is the outcome of Create.
type CreateResult struct {
	Profile *domain.Profile
	// Replayed is true when the profile was returned from an earlier request
	// carrying the same idempotency key, and nothing was inserted.
	Replayed bool
}

// Create validates in, allocates a unique QR-code ID and inserts the profile.
//
// Semantics:
//   - Fields are trimmed and NFC-normalized; fullName then phone must be
//     non-blank, otherwise a validation error naming the field is returned
//     before the store is touched.
//   - Candidates are drawn until one is absent from the store; a candidate
//     that loses the race at the unique index also counts as a collision.
//     After MaxAttempts, ErrQRCodeSpaceExhausted.
//   - With a non-empty idemKey, a live record for the key short-circuits to
//     the profile it produced; otherwise the key is recorded after insert.
func (s *ProfileService) Create(ctx context.Context, in CreateProfileInput, idemKey string) (*CreateResult, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Create",
		trace.WithAttributes(attribute.Bool("idempotency.key_present", idemKey != "")),
	)
	defer span.End()

	in = in.normalize()
	if err := in.check(); err != nil {
		spanFail(span, err)
		return nil, err
	}

	var res *CreateResult
	err := s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if idemKey != "" {
			p, err := s.replay(ctx, conn, idemKey)
			if err != nil {
				return err
			}
			if p != nil {
				res = &CreateResult{Profile: p, Replayed: true}
				return nil
			}
		}

		p, err := s.insertWithUniqueCode(ctx, conn, in)
		if err != nil {
			return err
		}
		res = &CreateResult{Profile: p}

		if idemKey != "" {
			if _, err := s.Repo.CreateIdempotency(ctx, conn, idemKey, p.QRCodeID, s.ttl()); err != nil {
				// The profile exists; a lost key record only weakens retries.
				zerolog.Ctx(ctx).Warn().Err(err).Str("qr_code_id", p.QRCodeID).Msg("idempotency record not stored")
			}
		}
		return nil
	})
	if err != nil {
		spanFail(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("profile.qr_code_id", res.Profile.QRCodeID),
		attribute.Bool("idempotency.replayed", res.Replayed),
	)
	if res.Replayed {
		idempotentReplays.Inc()
	} else {
		profilesCreated.Inc()
	}
	return res, nil
}

// Get returns the profile whose QR-code ID is code.
func (s *ProfileService) Get(ctx context.Context, code string) (*domain.Profile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("profile.qr_code_id", code)),
	)
	defer span.End()

	code = cleanText(code)
	if code == "" {
		return nil, ErrQRCodeRequired
	}

	var p *domain.Profile
	err := s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var err error
		p, err = s.Repo.GetProfileByQRCode(ctx, conn, code)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		spanFail(span, err)
		return nil, err
	}
	return p, nil
}

// insertWithUniqueCode runs the generate → check → insert loop on conn.
func (s *ProfileService) insertWithUniqueCode(ctx context.Context, conn *gorm.DB, in CreateProfileInput) (*domain.Profile, error) {
	newCode := s.NewCode
	if newCode == nil {
		newCode = NewQRCode
	}
	max := s.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= max; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, err
		}

		taken, err := s.Repo.QRCodeExists(ctx, conn, code)
		if err != nil {
			return nil, err
		}
		if taken {
			qrCollisions.Inc()
			continue
		}

		p := &domain.Profile{
			QRCodeID: code,
			FullName: in.FullName,
			Phone:    in.Phone,
			Telegram: in.Telegram,
			Email:    in.Email,
		}
		err = s.Repo.CreateProfile(ctx, conn, p)
		if errors.Is(err, repo.ErrDuplicate) {
			qrCollisions.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("qr.attempts", attempt))
		return p, nil
	}
	return nil, ErrQRCodeSpaceExhausted
}

// replay returns the profile a live idempotency record points at, or nil.
func (s *ProfileService) replay(ctx context.Context, conn *gorm.DB, key string) (*domain.Profile, error) {
	rec, err := s.Repo.GetIdempotency(ctx, conn, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.GetProfileByQRCode(ctx, conn, rec.QRCodeID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// spanFail marks span failed for server-side errors. Client errors
// (validation, not found) leave the status unset.
func spanFail(span trace.Span, err error) {
	if errs.KindOf(err) != errs.KindInternal {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *ProfileService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

