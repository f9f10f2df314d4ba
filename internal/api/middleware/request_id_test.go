package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, header string) (seen string, w *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		id, exists := c.Get(RequestIDKey)
		require.True(t, exists)
		seen = id.(string)
		c.Status(http.StatusOK)
	})

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	router.ServeHTTP(w, req)
	return seen, w
}

func TestRequestID_WhenClientProvidesRequestID_ThenUsesProvidedID(t *testing.T) {
	// Act
	seen, w := serveWithRequestID(t, "client-provided-request-id")

	// Assert
	assert.Equal(t, "client-provided-request-id", seen)
	assert.Equal(t, "client-provided-request-id", w.Header().Get(RequestIDHeader))
}

func TestRequestID_WhenClientDoesNotProvideRequestID_ThenGeneratesUUID(t *testing.T) {
	// Act
	seen, w := serveWithRequestID(t, "")

	// Assert
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestID_WhenMultipleRequests_ThenEachGetsDifferentID(t *testing.T) {
	// Act
	first, _ := serveWithRequestID(t, "")
	second, _ := serveWithRequestID(t, "")

	// Assert
	assert.NotEqual(t, first, second)
}

func TestRequestID_WhenClientIDUnsafe_ThenReplacesIt(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "too long", header: strings.Repeat("a", maxRequestIDLength+1)},
		{name: "contains space", header: "abc def"},
		{name: "non ascii", header: "idé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			seen, _ := serveWithRequestID(t, tt.header)

			// Assert
			assert.NotEqual(t, tt.header, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}
