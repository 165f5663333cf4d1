package jwt_test

import (
	"reserve/config"
	"reserve/infras/jwt"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	return token
}

func newService() jwt.JWT {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = secret

	return jwt.New(cfg)
}

func TestValidateToken(t *testing.T) {
	now := time.Now()
	valid := gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  gojwt.NewNumericDate(now),
	}

	t.Run("user id claim", func(t *testing.T) {
		token := sign(t, secret, jwt.Claims{UserID: "u-1", RegisteredClaims: valid})

		claims, err := newService().ValidateToken(token)

		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
	})

	t.Run("falls back to subject", func(t *testing.T) {
		registered := valid
		registered.Subject = "u-2"

		claims, err := newService().ValidateToken(sign(t, secret, jwt.Claims{RegisteredClaims: registered}))

		require.NoError(t, err)
		assert.Equal(t, "u-2", claims.UserID)
	})

	t.Run("no caller", func(t *testing.T) {
		_, err := newService().ValidateToken(sign(t, secret, jwt.Claims{RegisteredClaims: valid}))

		assert.ErrorIs(t, err, jwt.ErrInvalidClaim)
	})

	t.Run("expired", func(t *testing.T) {
		expired := gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(now.Add(-time.Minute))}

		_, err := newService().ValidateToken(sign(t, secret, jwt.Claims{UserID: "u-1", RegisteredClaims: expired}))

		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := newService().ValidateToken(sign(t, "other", jwt.Claims{UserID: "u-1", RegisteredClaims: valid}))

		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newService().ValidateToken("not.a.token")

		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := jwt.ExtractTokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = jwt.ExtractTokenFromHeader("")
	assert.Error(t, err)

	_, err = jwt.ExtractTokenFromHeader("Basic abc")
	assert.Error(t, err)

	_, err = jwt.ExtractTokenFromHeader("Bearer ")
	assert.Error(t, err)
}
