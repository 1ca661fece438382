package signal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCancel_Unblocked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requestCancel(cancel)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestRequestCancel_DeferredUntilUnblocked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	BlockSignals()
	BlockSignals()
	requestCancel(cancel)
	assert.NoError(t, ctx.Err())

	UnblockSignals()
	assert.NoError(t, ctx.Err(), "still inside the outer section")

	UnblockSignals()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestCritical(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("boom")
	err := Critical(func() error {
		requestCancel(cancel)
		assert.NoError(t, ctx.Err())
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestUnblockWithoutBlock(t *testing.T) {
	assert.NotPanics(t, UnblockSignals)
}
