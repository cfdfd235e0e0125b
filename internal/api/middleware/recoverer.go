package middleware

import (
	"fmt"
	"net/http"

	"github.com/example/ec-storefront/internal/api/responses"
	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/logger"
)

func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					responses.WriteError(r.Context(), log, w, apperr.Wrap(apperr.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
