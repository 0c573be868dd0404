package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessTokenClaims is the typed JWT issued to clients. The account id is
// carried as a hex ObjectID.
type AccessTokenClaims struct {
	AccountID string `json:"_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Account returns the authenticated account id.
func (c *AccessTokenClaims) Account() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.AccountID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid account id claim: %w", err)
	}
	return id, nil
}
