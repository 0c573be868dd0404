package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidora/vidora-backend/pkg/config"
)

// Tokens are issued by the account service; this package only verifies them.
var jwtSigningMethod = jwt.SigningMethodHS256

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if _, err := claims.Account(); err != nil {
		return nil, err
	}
	return claims, nil
}

func checkConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	return nil
}
