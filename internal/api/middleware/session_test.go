package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenService() *session.TokenService {
	return session.NewTokenService(testSecret, time.Hour)
}

func testOptions() SessionOptions {
	return SessionOptions{CookieName: "storefront_session"}
}

// captureSession returns a handler recording the session id it sees.
func captureSession(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================
// Session Middleware Tests
// ============================================

func TestSession_ValidCookie(t *testing.T) {
	tokens := newTestTokenService()
	token, _, err := tokens.Sign("session-123")
	require.NoError(t, err)

	var got string
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "storefront_session", Value: token})
	rec := httptest.NewRecorder()

	Session(tokens, testOptions(), logger.Nop())(captureSession(&got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-123", got)
	assert.Empty(t, rec.Header().Get(SessionTokenHeader), "existing session is not re-issued")
	assert.Empty(t, rec.Result().Cookies())
}

func TestSession_ValidHeader(t *testing.T) {
	tokens := newTestTokenService()
	token, _, err := tokens.Sign("session-456")
	require.NoError(t, err)

	var got string
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(SessionTokenHeader, token)
	rec := httptest.NewRecorder()

	Session(tokens, testOptions(), nil)(captureSession(&got)).ServeHTTP(rec, req)

	assert.Equal(t, "session-456", got)
}

func TestSession_CookieTakesPrecedence(t *testing.T) {
	tokens := newTestTokenService()
	cookieToken, _, err := tokens.Sign("from-cookie")
	require.NoError(t, err)
	headerToken, _, err := tokens.Sign("from-header")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "storefront_session", Value: cookieToken})
	req.Header.Set(SessionTokenHeader, headerToken)

	assert.Equal(t, cookieToken, ExtractToken(req, "storefront_session"))
}

func TestSession_MissingTokenStartsSession(t *testing.T) {
	tokens := newTestTokenService()

	var got string
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()

	Session(tokens, testOptions(), logger.Nop())(captureSession(&got)).ServeHTTP(rec, req)

	require.NotEmpty(t, got)
	issued := rec.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, issued)

	id, err := tokens.Validate(issued)
	require.NoError(t, err)
	assert.Equal(t, got, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "storefront_session", cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSession_InvalidTokenStartsSession(t *testing.T) {
	tokens := newTestTokenService()
	other := session.NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)
	forged, _, err := other.Sign("victim")
	require.NoError(t, err)

	var got string
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(SessionTokenHeader, forged)
	rec := httptest.NewRecorder()

	Session(tokens, testOptions(), logger.Nop())(captureSession(&got)).ServeHTTP(rec, req)

	assert.NotEqual(t, "victim", got)
	assert.NotEmpty(t, got)
	assert.NotEmpty(t, rec.Header().Get(SessionTokenHeader))
}

func TestSession_ExpiredTokenStartsSession(t *testing.T) {
	tokens := newTestTokenService()
	expired, _, err := session.NewTokenService(testSecret, -time.Minute).Sign("stale")
	require.NoError(t, err)

	var got string
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(SessionTokenHeader, expired)
	rec := httptest.NewRecorder()

	Session(tokens, testOptions(), nil)(captureSession(&got)).ServeHTTP(rec, req)

	assert.NotEqual(t, "stale", got)
	assert.NotEmpty(t, rec.Header().Get(SessionTokenHeader))
}

// ============================================
// Request ID / Recoverer Tests
// ============================================

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRecoverer_WritesInternalError(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestLogging_RecordsStatus(t *testing.T) {
	h := Logging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
