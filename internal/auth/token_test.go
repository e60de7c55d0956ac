package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, time.Hour, tg.accessTokenExpiry)
}

func TestTokenGenerator_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		userID int
		role   models.Role
	}{
		{name: "user", userID: 123, role: models.RoleUser},
		{name: "admin", userID: 1, role: models.RoleAdmin},
		{name: "userID zero", userID: 0, role: models.RoleUser},
	}

	tg := NewTokenGenerator(testSecret, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tg.GenerateAccessToken(tt.userID, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			userID, role, err := tg.ValidateAccessToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestTokenGenerator_ValidateAccessToken_Errors(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour)

	sign := func(t *testing.T, claims jwt.MapClaims, secret string) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "malformed",
			token: func(t *testing.T) string { return "not-a-token" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, jwt.MapClaims{"user_id": 1, "role": 1, "exp": exp, "type": "access"}, "other-secret")
			},
		},
		{
			name: "refresh token",
			token: func(t *testing.T) string {
				return sign(t, jwt.MapClaims{"exp": exp, "type": "refresh"}, testSecret)
			},
		},
		{
			name: "missing user_id",
			token: func(t *testing.T) string {
				return sign(t, jwt.MapClaims{"role": 1, "exp": exp, "type": "access"}, testSecret)
			},
		},
		{
			name: "missing role",
			token: func(t *testing.T) string {
				return sign(t, jwt.MapClaims{"user_id": 1, "exp": exp, "type": "access"}, testSecret)
			},
		},
		{
			name: "unexpected signing method",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "role": 1, "exp": exp, "type": "access"}).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, role, err := tg.ValidateAccessToken(tt.token(t))

			assert.Error(t, err)
			assert.Zero(t, userID)
			assert.Zero(t, role)
		})
	}
}

func TestTokenGenerator_Expired(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Minute)
	issued := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	tg.now = func() time.Time { return issued }

	token, err := tg.GenerateAccessToken(5, models.RoleUser)
	require.NoError(t, err)

	tg.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, err = tg.ValidateAccessToken(token)

	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
