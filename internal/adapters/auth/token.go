package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"ideahub/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"token_type"`
}

type jwtCodec struct {
	secret []byte
}

// NewJWTCodec returns a TokenCodec that signs claims with HS256 using the
// given symmetric secret. The same secret signs both token kinds; the
// token_type claim keeps access and refresh apart.
func NewJWTCodec(secret string) domain.TokenCodec {
	return &jwtCodec{secret: []byte(secret)}
}

func (c *jwtCodec) Issue(claims *domain.Claims, kind domain.TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	jc := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Roles:     claims.Roles,
		TokenType: string(kind),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify decodes and validates a token. All failure modes (bad signature,
// malformed input, expiry, unknown kind) collapse into ErrInvalidToken so the
// response does not reveal which check rejected the token.
func (c *jwtCodec) Verify(tokenString string) (*domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	kind := domain.TokenKind(jc.TokenType)
	if kind != domain.TokenKindAccess && kind != domain.TokenKindRefresh {
		return nil, domain.ErrInvalidToken
	}
	return &domain.Claims{
		Subject:   jc.Subject,
		Email:     jc.Email,
		FirstName: jc.FirstName,
		LastName:  jc.LastName,
		Roles:     jc.Roles,
		Kind:      kind,
	}, nil
}
