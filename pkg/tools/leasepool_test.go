package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

func TestLeasePoolAcquireRelease(t *testing.T) {
	p := NewLeasePool(1)
	release, err := p.Acquire(context.Background(), "docker:default", time.Second)
	require.NoError(t, err)
	release()

	release2, err := p.Acquire(context.Background(), "docker:default", time.Second)
	require.NoError(t, err)
	release2()
}

func TestLeasePoolTimesOutWhenExhausted(t *testing.T) {
	p := NewLeasePool(1)
	release, err := p.Acquire(context.Background(), "docker:default", time.Second)
	require.NoError(t, err)
	defer release()

	_, err = p.Acquire(context.Background(), "docker:default", 20*time.Millisecond)
	require.Error(t, err)
	sub, ok := opserrors.IsAdapter(err)
	require.True(t, ok)
	assert.Equal(t, opserrors.SubKindTimeout, sub)
}

func TestLeasePoolDefaultsMaxPerEndpointWhenNonPositive(t *testing.T) {
	p := NewLeasePool(0)
	assert.Equal(t, 4, p.maxPer)
}

func TestLeasePoolKeysAreIndependent(t *testing.T) {
	p := NewLeasePool(1)
	releaseA, err := p.Acquire(context.Background(), "docker:a", time.Second)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := p.Acquire(context.Background(), "docker:b", time.Second)
	require.NoError(t, err)
	defer releaseB()
}
