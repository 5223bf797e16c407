package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueToken(t *testing.T, secret string, userID int, expiresIn time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateRoundTrip(t *testing.T) {
	validator := NewJWTValidator("secret")

	userID, err := validator.Validate(issueToken(t, "secret", 42, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestValidateWrongSecret(t *testing.T) {
	validator := NewJWTValidator("secret")

	_, err := validator.Validate(issueToken(t, "other-secret", 42, time.Hour))
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	validator := NewJWTValidator("secret")

	_, err := validator.Validate(issueToken(t, "secret", 42, -time.Minute))
	assert.Error(t, err)
}

func TestValidateMissingUserID(t *testing.T) {
	validator := NewJWTValidator("secret")

	_, err := validator.Validate(issueToken(t, "secret", 0, time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDFromBearer(t *testing.T) {
	validator := NewJWTValidator("secret")
	token := issueToken(t, "secret", 7, time.Hour)

	userID, err := UserIDFromBearer(validator, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	_, err = UserIDFromBearer(validator, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = UserIDFromBearer(validator, "Basic "+token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := NewJWTValidator("secret")

	router := gin.New()
	router.Use(AuthMiddleware(validator))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("userID")})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "secret", 7, time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
