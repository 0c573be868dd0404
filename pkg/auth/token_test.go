package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "vidora", ExpirationMinutes: 30}
}

// signToken issues a token the way the account service does.
func signToken(t *testing.T, cfg config.JWTConfig, now time.Time, claims AccessTokenClaims) string {
	t.Helper()
	claims.Issuer = cfg.Issuer
	claims.Subject = claims.AccountID
	claims.ID = "jti-1"
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	accountID := primitive.NewObjectID()

	token := signToken(t, cfg, now, AccessTokenClaims{AccountID: accountID.Hex(), Username: "ana", Email: "ana@example.com"})
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	got, err := claims.Account()
	if err != nil || got != accountID {
		t.Fatalf("expected account %s, got %s (%v)", accountID.Hex(), got.Hex(), err)
	}
	if claims.Username != "ana" || claims.Email != "ana@example.com" {
		t.Fatalf("profile claims not preserved: %+v", claims)
	}
	if claims.Issuer != cfg.Issuer || claims.Subject != accountID.Hex() {
		t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("expected jti to round trip, got %q", claims.ID)
	}
	if want := now.Add(30 * time.Minute).Unix(); claims.ExpiresAt.Unix() != want {
		t.Fatalf("expected expiry %d, got %d", want, claims.ExpiresAt.Unix())
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testJWTConfig()
	accountID := primitive.NewObjectID()

	expired := signToken(t, cfg, time.Now().Add(-2*time.Hour), AccessTokenClaims{AccountID: accountID.Hex()})
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	valid := signToken(t, cfg, time.Now(), AccessTokenClaims{AccountID: accountID.Hex()})
	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, valid); err == nil {
		t.Fatal("expected signature mismatch")
	}
	other = cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, valid); err == nil {
		t.Fatal("expected issuer mismatch")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{AccountID: accountID.Hex()})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseAccessToken(cfg, unsigned); err == nil {
		t.Fatal("expected alg none to be rejected")
	}

	bad, _ := jwt.NewWithClaims(jwtSigningMethod, AccessTokenClaims{
		AccountID: "not-hex",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.Secret))
	if _, err := ParseAccessToken(cfg, bad); err == nil || !strings.Contains(err.Error(), "account id") {
		t.Fatalf("expected invalid account id error, got %v", err)
	}
}

func TestParseAccessTokenRequiresConfig(t *testing.T) {
	token := signToken(t, testJWTConfig(), time.Now(), AccessTokenClaims{AccountID: primitive.NewObjectID().Hex()})
	if _, err := ParseAccessToken(config.JWTConfig{Issuer: "vidora"}, token); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret"}, token); err == nil {
		t.Fatal("expected missing issuer error")
	}
}
