package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the attached logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(buf, nil))

		ctx := WithLogger(context.Background(), logger)

		require.True(t, Has(ctx))
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("falls back to the default logger", func(t *testing.T) {
		ctx := context.Background()

		assert.False(t, Has(ctx))
		assert.Same(t, slog.Default(), FromContext(ctx))
	})
}

func TestEnsure(t *testing.T) {
	first := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	second := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := Ensure(context.Background(), first)
	assert.Same(t, first, FromContext(ctx))

	// An existing logger is never replaced.
	ctx = Ensure(ctx, second)
	assert.Same(t, first, FromContext(ctx))

	// A nil fallback leaves the context untouched.
	bare := Ensure(context.Background(), nil)
	assert.False(t, Has(bare))
}
