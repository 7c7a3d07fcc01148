package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecuteOpensAfterMaxFailures(t *testing.T) {
	b := New("sink", Config{MaxFailures: 2, ResetTimeout: time.Hour}, nil)
	failing := func(ctx context.Context) error { return errors.New("boom") }

	require.Error(t, b.Execute(context.Background(), failing))
	require.Equal(t, Closed, b.State())
	require.Error(t, b.Execute(context.Background(), failing))
	require.Equal(t, Open, b.State())

	err := b.Execute(context.Background(), failing)
	require.ErrorIs(t, err, ErrOpen)
}

func TestExecuteClosesAfterSuccessfulProbePastResetTimeout(t *testing.T) {
	b := New("sink", Config{MaxFailures: 1, ResetTimeout: time.Millisecond}, nil)
	failing := func(ctx context.Context) error { return errors.New("boom") }
	require.Error(t, b.Execute(context.Background(), failing))
	require.Equal(t, Open, b.State())

	time.Sleep(5 * time.Millisecond)
	succeeding := func(ctx context.Context) error { return nil }
	require.NoError(t, b.Execute(context.Background(), succeeding))
	require.Equal(t, Closed, b.State())
}
