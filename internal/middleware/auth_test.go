package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/linkyhq/linky/internal/handlers"
	"github.com/linkyhq/linky/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	return signed
}

func setupAuthAPI(t *testing.T) (*chi.Mux, **int64) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.Owner(api, testSecret, zap.NewNop()))

	var captured *int64

	huma.Get(api, "/whoami", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		captured = handlers.OwnerFromContext(ctx)

		out := &testOutput{}
		out.Body.OK = true

		return out, nil
	})

	return router, &captured
}

func TestOwner(t *testing.T) {
	get := func(router *chi.Mux, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		return w
	}

	t.Run("a valid token sets the owner", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		token := signedToken(t, testSecret, jwt.MapClaims{
			"sub": "42",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		w := get(router, "Bearer "+token)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, *captured)
		assert.Equal(t, int64(42), **captured)
	})

	t.Run("no header means anonymous", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		w := get(router, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *captured)
	})

	t.Run("a token signed with the wrong secret is anonymous", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		token := signedToken(t, []byte("wrong-secret"), jwt.MapClaims{"sub": "42"})

		w := get(router, "Bearer "+token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *captured)
	})

	t.Run("an expired token is anonymous", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		token := signedToken(t, testSecret, jwt.MapClaims{
			"sub": "42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		w := get(router, "Bearer "+token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *captured)
	})

	t.Run("a non-numeric subject is anonymous", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		token := signedToken(t, testSecret, jwt.MapClaims{"sub": "alice"})

		w := get(router, "Bearer "+token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, *captured)
	})

	t.Run("garbage in the header is anonymous", func(t *testing.T) {
		router, captured := setupAuthAPI(t)

		for _, header := range []string{"Bearer", "Bearer ", "Basic dXNlcjpwYXNz", "Bearer not.a.jwt"} {
			w := get(router, header)

			require.Equal(t, http.StatusOK, w.Code, "header %q", header)
			assert.Nil(t, *captured, "header %q", header)
		}
	})
}
