package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuthRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(jwtManager, zap.NewNop()))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": c.GetString("username"),
			"actor":    c.GetString(ActorContextKey),
		})
	})
	return router
}

func TestAuthMiddleware_Success_SetsActor(t *testing.T) {
	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret-key-min-32-chars-for-testing", logger)
	router := setupAuthRouter(jwtManager)

	token, err := jwtManager.GenerateToken("operator")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":"operator"`)
	assert.Contains(t, w.Body.String(), `"username":"operator"`)
}

func TestAuthMiddleware_Error_MissingHeader(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-min-32-chars-for-testing", zap.NewNop())
	router := setupAuthRouter(jwtManager)

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Error_MalformedHeader(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-min-32-chars-for-testing", zap.NewNop())
	router := setupAuthRouter(jwtManager)

	testCases := []struct {
		name   string
		header string
	}{
		{"no scheme", "some-token"},
		{"wrong scheme", "Basic some-token"},
		{"too many parts", "Bearer token extra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", tc.header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_Error_TokenSignedWithOtherSecret(t *testing.T) {
	logger := zap.NewNop()
	other := auth.NewJWTManager("another-secret-key-min-32-chars-test", logger)
	jwtManager := auth.NewJWTManager("test-secret-key-min-32-chars-for-testing", logger)
	router := setupAuthRouter(jwtManager)

	token, err := other.GenerateToken("admin")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
