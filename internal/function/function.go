// Package function serves single invocation events through the same Gin
// engine the HTTP server uses.
//
// An event names the HTTP method, an optional path, the body and the
// qrCodeId path parameter; the result carries the status code, the response
// headers and the body. Binary bodies (the QR PNG) come back base64-encoded
// with IsBase64Encoded set.
package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/qrtag-backend/internal/errs"
	"github.com/tbourn/qrtag-backend/internal/http/middleware"
)

// Event is one invocation request.
type Event struct {
	HTTPMethod            string            `json:"httpMethod"`
	Path                  string            `json:"path,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"`
	Body                  string            `json:"body,omitempty"`
	PathParams            map[string]string `json:"pathParams,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	// RequestID, when set, becomes the X-Request-ID of the request.
	RequestID string `json:"requestId,omitempty"`
}

// Result is one invocation response.
type Result struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// Handler dispatches events to an http.Handler.
type Handler struct {
	engine   http.Handler
	basePath string
}

// New returns a Handler that resolves path-less events against
// basePath + "/profiles".
func New(engine http.Handler, basePath string) *Handler {
	return &Handler{engine: engine, basePath: strings.TrimRight(basePath, "/")}
}

// Decode reads one JSON event from r. Malformed input is a parse error.
func Decode(r io.Reader) (Event, error) {
	var ev Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return Event{}, errs.Parse("invalid invocation event", err)
	}
	return ev, nil
}

// Method is the event's HTTP method, upper-cased; GET when unset.
func (ev Event) Method() string {
	m := strings.ToUpper(strings.TrimSpace(ev.HTTPMethod))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// IsPreflight reports whether ev is a CORS preflight.
func (ev Event) IsPreflight() bool { return ev.Method() == http.MethodOptions }

// PreflightResult answers any OPTIONS event: 200, the fixed headers and an
// empty body. It needs neither configuration nor a store.
func PreflightResult() Result {
	return Result{StatusCode: http.StatusOK, Headers: middleware.FixedHeaders()}
}

// Invoke serves ev and returns the captured response. It only fails when ev
// cannot be turned into an HTTP request.
func (h *Handler) Invoke(ctx context.Context, ev Event) (Result, error) {
	method := ev.Method()

	target := h.target(ev)
	var body io.Reader
	if ev.Body != "" {
		body = strings.NewReader(ev.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{}, errs.Parse("invalid invocation event", err)
	}
	for k, v := range ev.Headers {
		req.Header.Set(k, v)
	}
	if ev.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", middleware.ContentTypeJSON)
	}
	if ev.RequestID != "" {
		req.Header.Set("X-Request-ID", ev.RequestID)
	}

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	res := Result{
		StatusCode: rec.Code,
		Headers:    flatten(rec.Header()),
	}
	if isText(rec.Header().Get("Content-Type")) {
		res.Body = rec.Body.String()
	} else {
		res.Body = base64.StdEncoding.EncodeToString(rec.Body.Bytes())
		res.IsBase64Encoded = true
	}

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Int("status", res.StatusCode).
		Str("path", middleware.Redact(req.URL.Path)).
		Msg("invocation served")
	return res, nil
}

// ErrorResult renders err the way the HTTP layer renders errors, for failures
// that happen before an event reaches the engine.
func ErrorResult(err error) Result {
	e := errs.From(err)
	body, _ := json.Marshal(map[string]string{
		"code":  e.Kind.String(),
		"error": e.Error(),
	})
	return Result{
		StatusCode: e.Kind.Status(),
		Headers:    middleware.FixedHeaders(),
		Body:       string(body),
	}
}

// target builds the request URI from the event. An explicit path wins;
// otherwise the qrCodeId path parameter selects the single-profile route for
// GET. Other methods ignore it, so a POST still creates.
func (h *Handler) target(ev Event) string {
	p := ev.Path
	if p == "" {
		p = h.basePath + "/profiles"
		if id := ev.PathParams["qrCodeId"]; id != "" && ev.Method() == http.MethodGet {
			p += "/" + url.PathEscape(id)
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(ev.QueryStringParameters) == 0 {
		return p
	}
	q := url.Values{}
	for k, v := range ev.QueryStringParameters {
		q.Set(k, v)
	}
	return p + "?" + q.Encode()
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "text/")
}
