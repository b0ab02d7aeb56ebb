package reward

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetRamp(t *testing.T) {
	ramp := TargetRamp{
		Initial: 300_000_000,
		Step:    10_000_000,
		Floor:   250_000_000,
		Cap:     500_000_000,
	}
	require.NoError(t, ramp.Validate())

	assert.Equal(t, sdkmath.NewInt(300_000_000), ramp.Target(0))
	assert.Equal(t, sdkmath.NewInt(350_000_000), ramp.Target(5))
	assert.Equal(t, sdkmath.NewInt(500_000_000), ramp.Target(100))

	t.Run("decreasing ramp hits the floor", func(t *testing.T) {
		down := TargetRamp{Initial: 300_000_000, Step: -20_000_000, Floor: 250_000_000, Cap: 500_000_000}
		assert.Equal(t, sdkmath.NewInt(280_000_000), down.Target(1))
		assert.Equal(t, sdkmath.NewInt(250_000_000), down.Target(50))
	})

	t.Run("floor above cap", func(t *testing.T) {
		err := TargetRamp{Floor: 2, Cap: 1}.Validate()
		require.ErrorIs(t, err, ErrInvalidRamp)
	})
}

func TestStakePercent(t *testing.T) {
	basis := sdkmath.NewInt(DefaultBasisPoints)

	pct, err := StakePercent(sdkmath.NewInt(25), sdkmath.NewInt(100), basis)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(250_000_000), pct)

	_, err = StakePercent(sdkmath.NewInt(25), sdkmath.ZeroInt(), basis)
	require.ErrorIs(t, err, ErrZeroSupply)
}

func TestPoolSize(t *testing.T) {
	basis := sdkmath.NewInt(DefaultBasisPoints)
	last := sdkmath.NewInt(1_000_000)

	t.Run("on target keeps the amount", func(t *testing.T) {
		pool := PoolSize(last, sdkmath.NewInt(400_000_000), sdkmath.NewInt(400_000_000), basis)
		assert.Equal(t, last, pool)
	})

	t.Run("under target grows", func(t *testing.T) {
		pool := PoolSize(last, sdkmath.NewInt(400_000_000), sdkmath.NewInt(300_000_000), basis)
		assert.Equal(t, sdkmath.NewInt(1_100_000), pool)
	})

	t.Run("over target shrinks", func(t *testing.T) {
		pool := PoolSize(last, sdkmath.NewInt(400_000_000), sdkmath.NewInt(650_000_000), basis)
		assert.Equal(t, sdkmath.NewInt(750_000), pool)
	})

	t.Run("stake ratio beyond basis plus target", func(t *testing.T) {
		pool := PoolSize(last, sdkmath.NewInt(400_000_000), sdkmath.NewInt(1_500_000_000), basis)
		assert.True(t, pool.IsZero())

		pool = PoolSize(last, sdkmath.NewInt(400_000_000), sdkmath.NewInt(1_400_000_000), basis)
		assert.True(t, pool.IsZero())
	})
}

func TestSizePool(t *testing.T) {
	params := Params{
		BasisPoints: DefaultBasisPoints,
		Ramp:        TargetRamp{Initial: 500_000_000, Floor: 0, Cap: DefaultBasisPoints},
	}
	require.NoError(t, params.Validate())

	sizing, err := SizePool(params, 3, sdkmath.NewInt(1000), sdkmath.NewInt(40), sdkmath.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000_000), sizing.Target)
	assert.Equal(t, sdkmath.NewInt(400_000_000), sizing.StakePercent)
	assert.Equal(t, sdkmath.NewInt(1100), sizing.Pool)

	_, err = SizePool(params, 3, sdkmath.NewInt(1000), sdkmath.NewInt(40), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrZeroSupply)
	require.ErrorIs(t, Params{}.Validate(), ErrInvalidBasis)
}
