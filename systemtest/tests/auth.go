package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var protectedRoutes = []struct {
	method string
	path   string
}{
	{"GET", "/"},
	{"GET", "/docker_info"},
	{"GET", "/containers"},
	{"POST", "/container/web/start"},
	{"POST", "/container/web/stop"},
	{"POST", "/container/web/restart"},
}

func TestAuth(t *testing.T, router *gin.Engine, jwtSecret string) {
	t.Run("login success", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "password"})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.Message)

		claims, err := auth.ValidateToken(jwtSecret, resp.Token, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username())
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "hunter2"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("every other route requires a token", func(t *testing.T) {
		for _, route := range protectedRoutes {
			rr := doJSON(router, route.method, route.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)

			rr = doJSONWithAuth(router, route.method, route.path, nil, "garbage")
			assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.GenerateToken(auth.JWTConfig{Secret: jwtSecret, Expiry: time.Hour}, "admin", time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		rr := doJSONWithAuth(router, "GET", "/containers", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := auth.GenerateToken(auth.JWTConfig{Secret: "not-" + jwtSecret}, "admin", time.Now())
		require.NoError(t, err)

		rr := doJSONWithAuth(router, "GET", "/containers", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "password"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	return doJSONWithAuth(router, method, path, body, "")
}

func doJSONWithAuth(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
