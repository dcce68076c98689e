package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linkyhq/linky/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(_ context.Context) error {
	return s.err
}

func TestHandler_Check(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		h := health.NewHandler(&stubChecker{}, &stubChecker{})

		resp, err := h.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, "healthy", resp.Body.Database)
		assert.Equal(t, "healthy", resp.Body.Redis)
	})

	t.Run("a failing database degrades the status", func(t *testing.T) {
		h := health.NewHandler(&stubChecker{err: errors.New("connection refused")}, &stubChecker{})

		resp, err := h.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Database)
		assert.Equal(t, "healthy", resp.Body.Redis)
	})

	t.Run("a failing redis degrades the status", func(t *testing.T) {
		h := health.NewHandler(&stubChecker{}, &stubChecker{err: errors.New("connection refused")})

		resp, err := h.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Redis)
	})

	t.Run("unconfigured dependencies report disabled without degrading", func(t *testing.T) {
		h := health.NewHandler(nil, nil)

		resp, err := h.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, "disabled", resp.Body.Database)
		assert.Equal(t, "disabled", resp.Body.Redis)
	})
}
