package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")
var errBusiness = errors.New("declined")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour
	b := New[int](cfg, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, "open", b.State())
	_, err := b.Execute(func() (int, error) { return 1, nil })
	assert.True(t, IsOpen(err))
}

func TestBreaker_IgnoresSuccessfulErrors(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	b := New[int](cfg, func(err error) bool {
		return err == nil || errors.Is(err, errBusiness)
	}, nil)

	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errBusiness })
		require.ErrorIs(t, err, errBusiness)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassesValue(t *testing.T) {
	b := New[string](DefaultConfig("test"), nil, nil)
	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.False(t, IsOpen(err))
}
