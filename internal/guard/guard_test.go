package guard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PassesThroughErrors(t *testing.T) {
	want := errors.New("plain")
	assert.Equal(t, want, Run(func() error { return want }))
	assert.NoError(t, Run(func() error { return nil }))
}

func TestRun_RecoversPanic(t *testing.T) {
	err := Run(func() error { panic("kaboom") })

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Contains(t, err.Error(), "kaboom")
	assert.NotEmpty(t, Stack(err))
}

func TestRun_PanicWithErrorUnwraps(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Run(func() error { panic(sentinel) })
	assert.ErrorIs(t, err, sentinel)
}

func TestStack_WrappedAndMissing(t *testing.T) {
	err := Run(func() error { panic(1) })
	assert.NotEmpty(t, Stack(fmt.Errorf("outer: %w", err)))
	assert.Empty(t, Stack(errors.New("no stack")))
}
