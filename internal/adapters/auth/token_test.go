package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/internal/domain"
)

func testClaims() *domain.Claims {
	return &domain.Claims{
		Subject:   "user-123",
		Email:     "u@example.com",
		FirstName: "Alice",
		LastName:  "Ivanova",
		Roles:     []string{domain.RoleAdmin, domain.RoleInitiator},
	}
}

func TestJWTCodec_Issue_and_Verify(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	token, err := codec.Issue(testClaims(), domain.TokenKindAccess, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.FirstName)
	assert.Equal(t, "Ivanova", claims.LastName)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleInitiator}, claims.Roles)
	assert.Equal(t, domain.TokenKindAccess, claims.Kind)
}

func TestJWTCodec_Verify_kind_round_trips(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	refresh, err := codec.Issue(testClaims(), domain.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(refresh)
	require.NoError(t, err)
	// The caller decides whether the kind is acceptable; the codec only
	// reports it. Same payload signed as refresh must not come back as access.
	assert.Equal(t, domain.TokenKindRefresh, claims.Kind)
	assert.NotEqual(t, domain.TokenKindAccess, claims.Kind)
}

func TestJWTCodec_Verify_expired(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	token, err := codec.Issue(testClaims(), domain.TokenKindAccess, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTCodec_Verify_wrong_secret(t *testing.T) {
	token, err := NewJWTCodec("secret-a").Issue(testClaims(), domain.TokenKindAccess, time.Minute)
	require.NoError(t, err)

	_, err = NewJWTCodec("secret-b").Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTCodec_Verify_malformed(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", token)
	}
}

func TestJWTCodec_Verify_rejects_unknown_kind(t *testing.T) {
	// A token signed with the right secret but an unrecognized token_type
	// must be rejected like any other invalid token.
	secret := "test-secret"
	jc := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: "session",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewJWTCodec(secret).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
