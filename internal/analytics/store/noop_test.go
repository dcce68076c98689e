package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/linkyhq/linky/internal/analytics"
	"github.com/linkyhq/linky/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoop(t *testing.T) {
	t.Run("logs created events", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		s := store.NewNoop(zap.New(core))

		err := s.SaveLinkCreated(context.Background(), &analytics.LinkCreatedEvent{
			Slug:        "abc123",
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("logs visited events", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		s := store.NewNoop(zap.New(core))

		err := s.SaveLinkVisited(context.Background(), &analytics.LinkVisitedEvent{
			Slug:      "abc123",
			LinkID:    7,
			VisitedAt: time.Now(),
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, logs.Len())
	})
}
