package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/pkg/auth"
	"github.com/vidora/vidora-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "vidora", ExpirationMinutes: 60, CookieName: "accessToken"}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsTokenFromOtherIssuer(t *testing.T) {
	cfg := testJWTConfig()
	other := cfg
	other.Issuer = "someone-else"
	token := mintTestToken(t, other, primitive.NewObjectID())

	handler := Auth(cfg, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	cfg := testJWTConfig()
	accountID := primitive.NewObjectID()
	token := mintTestToken(t, cfg, accountID)

	cases := map[string]func(r *http.Request){
		"bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		"raw":    func(r *http.Request) { r.Header.Set("Authorization", token) },
		"cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token}) },
	}
	for name, attach := range cases {
		t.Run(name, func(t *testing.T) {
			var captured primitive.ObjectID
			var username string
			handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = AccountIDFromContext(r.Context())
				username = UsernameFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			attach(req)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", resp.Code)
			}
			if captured != accountID {
				t.Fatalf("expected account %s in context, got %s", accountID.Hex(), captured.Hex())
			}
			if username != "ana" {
				t.Fatalf("expected username in context, got %q", username)
			}
		})
	}
}

func TestAccountIDFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := AccountIDFromContext(req.Context()); ok {
		t.Fatal("expected no account in a fresh context")
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, accountID primitive.ObjectID) string {
	t.Helper()
	now := time.Now()
	claims := auth.AccessTokenClaims{
		AccountID: accountID.Hex(),
		Username:  "ana",
		Email:     "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
