package log

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntoFrom(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := Into(context.Background(), logger)
	assert.Same(t, logger, From(ctx))
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), From(context.Background()))

	var nilLogger *slog.Logger
	ctx := Into(context.Background(), nilLogger)
	assert.Same(t, slog.Default(), From(ctx))
}
