package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCSRFRouter(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := []byte("0123456789abcdef0123456789abcdef")
	mutations := 0

	router := gin.New()
	router.Use(CSRFMiddleware(secret, false, nil))
	router.POST("/api/issue", func(c *gin.Context) {
		mutations++
		c.JSON(http.StatusOK, gin.H{"message": "Book issued successfully"})
	})
	router.GET("/api/csrf", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrfToken": GetCSRFToken(c)})
	})

	return router, &mutations
}

func TestCSRFMiddleware_RejectedRequestNeverReachesHandler(t *testing.T) {
	router, mutations := setupCSRFRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/issue", strings.NewReader(`{"bookId":1,"studentId":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF token invalid or missing")
	assert.Equal(t, 0, *mutations)
}

func TestCSRFMiddleware_BearerRequestSkipsCheck(t *testing.T) {
	router, mutations := setupCSRFRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/issue", strings.NewReader(`{"bookId":1,"studentId":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *mutations)
}

func TestCSRFMiddleware_SafeMethodExposesToken(t *testing.T) {
	router, _ := setupCSRFRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "csrfToken")
	assert.NotContains(t, w.Body.String(), `"csrfToken":""`)
}
