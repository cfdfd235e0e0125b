package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/example/ec-storefront/internal/api/responses"
	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/session"
)

// SessionTokenHeader carries the session token for clients without cookies.
const SessionTokenHeader = "X-Session-Token"

type contextKey string

const ctxSessionID contextKey = "session_id"

// SessionOptions controls how the session token is returned to the client.
type SessionOptions struct {
	CookieName   string
	SecureCookie bool
}

// ExtractToken reads the session token from the cookie, falling back to the header.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(SessionTokenHeader)
}

// Session resolves the shopper session for the request. A missing, expired
// or tampered token starts a fresh session, whose token is returned in both
// the cookie and the response header.
func Session(tokens *session.TokenService, opts SessionOptions, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID := ""
			if token := ExtractToken(r, opts.CookieName); token != "" {
				id, err := tokens.Validate(token)
				if err == nil {
					sessionID = id
				} else if log != nil {
					log.Debug(log.WithField(ctx, "reason", err.Error()), "session.token_rejected")
				}
			}

			if sessionID == "" {
				id, token, expiresAt, err := tokens.Issue()
				if err != nil {
					responses.WriteError(ctx, log, w, apperr.Wrap(apperr.CodeInternal, err, "issuing session"))
					return
				}
				sessionID = id
				writeToken(w, opts, token, expiresAt)
			}

			if log != nil {
				ctx = log.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, sessionID)))
		})
	}
}

func writeToken(w http.ResponseWriter, opts SessionOptions, token string, expiresAt time.Time) {
	w.Header().Set(SessionTokenHeader, token)
	http.SetCookie(w, &http.Cookie{
		Name:     opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the session id into the context for downstream handlers.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
