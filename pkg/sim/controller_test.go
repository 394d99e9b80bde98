package sim

import (
	"context"
	"testing"

	"github.com/snow-ghost/fuzzyctl/pkg/loop"
	"github.com/snow-ghost/fuzzyctl/pkg/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLettuceControllerWarmsColdHouse(t *testing.T) {
	sys, err := system.Default()
	require.NoError(t, err)
	eng, err := sys.Build()
	require.NoError(t, err)

	controlled := newGreenhouse(t, nil)
	l, err := loop.New(eng, controlled, controlled, loop.Config{
		MaxCycles: 36,
		Defaults:  sys.Fallbacks(),
	})
	require.NoError(t, err)
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, 36, l.Cycles())

	idle := newGreenhouse(t, nil)
	applyN(t, idle, 36, nil)

	assert.Greater(t, controlled.Snapshot().Temperature, idle.Snapshot().Temperature)
	assert.Greater(t, controlled.Snapshot().CO2, idle.Snapshot().CO2)
	assert.Greater(t, controlled.Snapshot().SubstrateHumidity, idle.Snapshot().SubstrateHumidity)
}
