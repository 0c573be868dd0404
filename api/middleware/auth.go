package middleware

import (
	"net/http"
	"strings"

	"github.com/vidora/vidora-backend/api/responses"
	pkgAuth "github.com/vidora/vidora-backend/pkg/auth"
	"github.com/vidora/vidora-backend/pkg/config"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

// Auth validates the access token from the Authorization header or the
// access token cookie and seeds the request context with the account.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r, cfg.CookieName)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			accountID, err := claims.Account()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithAccountID(r.Context(), accountID)
			ctx = withUsername(ctx, claims.Username)
			if logg != nil {
				ctx = logg.WithUserID(ctx, accountID.Hex())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request, cookieName string) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
