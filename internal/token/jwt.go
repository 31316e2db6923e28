package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

const issuer = "alumni-connect"

// Claims carries the account identity inside a session credential.
type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID  `json:"id"`
	Role      model.Role `json:"role"`
}

// JWT implements model.CredentialIssuer backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

var _ model.CredentialIssuer = (*JWT)(nil)

// NewJWT creates a credential issuer signing with secretKey. Issued tokens
// expire after ttl.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	return &JWT{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue signs a credential for the account.
func (j *JWT) Issue(accountID uuid.UUID, role model.Role) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		AccountID: accountID,
		Role:      role,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}

	return tokenString, nil
}

// Verify validates tokenString and returns the principal it carries. Every
// failure wraps model.ErrAuthenticationFailed.
func (j *JWT) Verify(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %w", model.ErrAuthenticationFailed, err)
	}
	if !token.Valid {
		return model.Principal{}, fmt.Errorf("%w: credential is invalid", model.ErrAuthenticationFailed)
	}
	if claims.AccountID == uuid.Nil {
		return model.Principal{}, fmt.Errorf("%w: credential has no account", model.ErrAuthenticationFailed)
	}

	return model.Principal{AccountID: claims.AccountID, Role: claims.Role}, nil
}
