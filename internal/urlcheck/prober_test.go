package urlcheck_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/linkyhq/linky/internal/urlcheck"
	"github.com/stretchr/testify/assert"
)

func TestProber_Probe(t *testing.T) {
	t.Run("reports success on a 2xx response", func(t *testing.T) {
		var gotMethod atomic.Value

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod.Store(r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		prober := urlcheck.NewProber()

		assert.True(t, prober.Probe(context.Background(), server.URL))
		assert.Equal(t, http.MethodHead, gotMethod.Load())
	})

	t.Run("reports failure on server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		prober := urlcheck.NewProber()

		assert.False(t, prober.Probe(context.Background(), server.URL))
	})

	t.Run("reports failure on 404", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		prober := urlcheck.NewProber()

		assert.False(t, prober.Probe(context.Background(), server.URL))
	})

	t.Run("reports failure when nothing is listening", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		url := server.URL
		server.Close()

		prober := urlcheck.NewProber()

		assert.False(t, prober.Probe(context.Background(), url))
	})

	t.Run("rejects hosts without a dot before dialing", func(t *testing.T) {
		prober := urlcheck.NewProber()

		assert.False(t, prober.Probe(context.Background(), "http://localhost"))
	})

	t.Run("honors a cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		prober := urlcheck.NewProber()

		assert.False(t, prober.Probe(ctx, server.URL))
	})
}
