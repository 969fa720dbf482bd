// Profile HTTP handlers.
//
// This file exposes REST endpoints for profile resources:
//   - POST   /profiles                     (create)
//   - GET    /profiles/{qrCodeId}          (read)
//   - GET    /profiles?qrCodeId=…          (read, query form)
//   - GET    /profiles/{qrCodeId}/qr.png   (printable QR image)
//
// Handlers are transport-thin: they decode input, call the profile service,
// and translate results into HTTP responses. Errors flow through failErr.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"rsc.io/qr"

	"github.com/tbourn/qrtag-backend/internal/domain"
	"github.com/tbourn/qrtag-backend/internal/errs"
	"github.com/tbourn/qrtag-backend/internal/http/middleware"
	"github.com/tbourn/qrtag-backend/internal/services"
	"github.com/tbourn/qrtag-backend/internal/sysutil"
	"github.com/tbourn/qrtag-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProfileService defines the profile operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProfileService interface {
	// Create validates in and stores a new profile under a fresh QR-code ID.
	// A non-empty idemKey enables replay of an earlier result.
	Create(ctx context.Context, in services.CreateProfileInput, idemKey string) (*services.CreateResult, error)
	// Get returns the profile with the given QR-code ID.
	Get(ctx context.Context, qrCodeID string) (*domain.Profile, error)
}

//
// Handler wiring
//

// HeaderIdempotentReplayed marks a response served from an earlier request.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

const (
	defaultQRScale = 8
	maxQRScale     = 32
)

// Handlers groups HTTP endpoints for profiles.
type Handlers struct {
	profiles      ProfileService
	publicBaseURL string
}

// New constructs Handlers bound to the profile service. publicBaseURL is the
// origin of the public profile page encoded into QR images.
func New(profiles ProfileService, publicBaseURL string) *Handlers {
	return &Handlers{
		profiles:      profiles,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

//
// DTOs
//

// CreateProfileRequest is the JSON payload for creating a profile. All keys
// are optional at the JSON level; required fields are enforced by the service
// so that the error names the missing field.
type CreateProfileRequest struct {
	FullName *string `json:"fullName" example:"Anna Petrova"`
	Phone    *string `json:"phone"    example:"+7 900 123-45-67"`
	Telegram *string `json:"telegram" example:"@anna"`
	Email    *string `json:"email"    example:"anna@example.com"`
}

func (r CreateProfileRequest) input() services.CreateProfileInput {
	return services.CreateProfileInput{
		FullName: deref(r.FullName),
		Phone:    deref(r.Phone),
		Telegram: r.Telegram,
		Email:    r.Email,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

//
// Handlers
//

// CreateProfile godoc
// @ID          createProfile
// @Summary     Create a profile
// @Description Stores a contact profile under a newly generated QR-code ID. With an Idempotency-Key header, a retried request returns the profile created the first time.
// @Tags        Profiles
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key (<=200 chars of A-Za-z0-9._~-:)"
// @Param       body             body    handlers.CreateProfileRequest  true  "Profile payload"
//
// @Success     201  {object}  domain.ProfileView
// @Header      201  {string}  Idempotent-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation or parse error"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles [post]
func (h *Handlers) CreateProfile(c *gin.Context) {
	// An empty body is the empty object.
	var req CreateProfileRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			failErr(c, errs.Parse("invalid request body", err))
			return
		}
	}

	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.profiles.Create(c.Request.Context(), req.input(), key)
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		middleware.MarkReplay(c)
		c.Header(HeaderIdempotentReplayed, "true")
	}
	ok(c, http.StatusCreated, res.Profile.View())
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get a profile by QR-code ID
// @Description Returns the profile a QR tag points to.
// @Tags        Profiles
// @Produce     json
//
// @Param       qrCodeId  path  string  true  "QR-code ID"  example(QR7K2M9XQA)
//
// @Success     200  {object}  domain.ProfileView
// @Failure     400  {object}  handlers.ErrorResponse  "Missing qrCodeId"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/{qrCodeId} [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), qrCodeParam(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p.View())
}

// GetProfileByQuery godoc
// @ID          getProfileByQuery
// @Summary     Get a profile by QR-code ID (query form)
// @Description Same as GET /profiles/{qrCodeId}, reading the ID from the qrCodeId or qrCode query parameter.
// @Tags        Profiles
// @Produce     json
//
// @Param       qrCodeId  query  string  false  "QR-code ID"
// @Param       qrCode    query  string  false  "QR-code ID (alias)"
//
// @Success     200  {object}  domain.ProfileView
// @Failure     400  {object}  handlers.ErrorResponse  "Missing qrCodeId"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /profiles [get]
func (h *Handlers) GetProfileByQuery(c *gin.Context) { h.GetProfile(c) }

// QRCodePNG godoc
// @ID          getProfileQRCode
// @Summary     Render the QR tag for a profile
// @Description Returns a PNG QR code (level M) that encodes the public profile URL.
// @Tags        Profiles
// @Produce     png
//
// @Param       qrCodeId  path   string  true   "QR-code ID"
// @Param       scale     query  int     false  "Pixels per module (1-32)"  default(8)
// @Param       download  query  bool    false  "Serve as an attachment named <qrCodeId>.png"
//
// @Success     200  {file}    binary
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/{qrCodeId}/qr.png [get]
func (h *Handlers) QRCodePNG(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), qrCodeParam(c))
	if err != nil {
		failErr(c, err)
		return
	}

	code, err := qr.Encode(h.ProfileURL(p.QRCodeID), qr.M)
	if err != nil {
		failErr(c, err)
		return
	}
	code.Scale = utils.Clamp(utils.AtoiDefault(c.Query("scale"), defaultQRScale), 1, maxQRScale)

	if sysutil.IsTruthy(c.Query("download")) {
		c.Header("Content-Disposition", `attachment; filename="`+p.QRCodeID+`.png"`)
	}
	// The fixed JSON content type is already set; c.Data would keep it.
	c.Header("Content-Type", "image/png")
	c.Data(http.StatusOK, "image/png", code.PNG())
}

// MethodNotAllowed answers methods the API does not support.
func MethodNotAllowed(c *gin.Context) {
	failErr(c, errs.MethodNotAllowed(c.Request.Method))
}

// NotFound answers paths with no route.
func NotFound(c *gin.Context) {
	failErr(c, errs.NotFound("route not found"))
}

// ProfileURL is the public page a printed tag for qrCodeID points at.
func (h *Handlers) ProfileURL(qrCodeID string) string {
	return h.publicBaseURL + "/profile/" + qrCodeID
}

// qrCodeParam reads the QR-code ID from the path, falling back to the
// qrCodeId and qrCode query parameters.
func qrCodeParam(c *gin.Context) string {
	if v := c.Param("qrCodeId"); v != "" {
		return v
	}
	if v := c.Query("qrCodeId"); v != "" {
		return v
	}
	return c.Query("qrCode")
}
