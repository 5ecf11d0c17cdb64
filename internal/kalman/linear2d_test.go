package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig6() Config {
	return Config{
		UseDim:               true,
		ProcessNoiseDiag:     []float32{9, 9, 200, 200, 5, 5},
		MeasurementNoiseDiag: []float32{2, 2, 2, 2},
	}
}

func TestLinear2D_InitializeSetsPositionAndDims(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{10, 20},
		Dims:     []float32{4, 5},
		HasDims:  true,
	}))

	state := f.State()
	assert.InDelta(t, 10, state[0], 1e-6)
	assert.InDelta(t, 20, state[1], 1e-6)
	assert.InDelta(t, 0, state[2], 1e-6)
	assert.InDelta(t, 0, state[3], 1e-6)
	assert.InDelta(t, 4, state[4], 1e-6)
	assert.InDelta(t, 5, state[5], 1e-6)
}

func TestLinear2D_PredictAdvancesPositionByVelocity(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{4, 5}, HasDims: true}))
	// Seed a velocity directly so Predict has something to integrate.
	f.base.x.SetVec(2, 3)
	f.base.x.SetVec(3, -1)

	require.NoError(t, f.Predict(2.0))

	state := f.State()
	assert.InDelta(t, 6, state[0], 1e-4)
	assert.InDelta(t, -2, state[1], 1e-4)
}

func TestLinear2D_PredictClampsNonPositiveDt(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{1, 1}, HasDims: true}))
	f.base.x.SetVec(2, 100)

	require.NoError(t, f.Predict(0))
	require.NoError(t, f.Predict(-5))

	// Position should move only by the clamped epsilon dt, not stay put
	// or blow up.
	state := f.State()
	assert.Less(t, state[0], float32(1.0))
	assert.Greater(t, state[0], float32(0))
}

// Invariant: a correction toward the true position must not leave the
// filter's position estimate farther from the truth than before the
// correction (spec invariant: "correction never increases position error
// given a measurement exactly at the predicted position plus bounded
// noise").
func TestLinear2D_CorrectDoesNotIncreasePositionError(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{4, 5}, HasDims: true}))
	require.NoError(t, f.Predict(0.1))

	truth := []float32{1.0, 1.0}
	before := f.State()
	errBefore := math.Hypot(float64(before[0]-truth[0]), float64(before[1]-truth[1]))

	require.NoError(t, f.Correct(Measurement{Position: truth, Dims: []float32{4, 5}, HasDims: true}))

	after := f.State()
	errAfter := math.Hypot(float64(after[0]-truth[0]), float64(after[1]-truth[1]))

	assert.LessOrEqual(t, errAfter, errBefore+1e-6)
}

func TestLinear2D_CorrectRejectsNonFiniteMeasurement(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{4, 5}, HasDims: true}))
	before := f.State()

	err := f.Correct(Measurement{
		Position: []float32{float32(math.NaN()), 0},
		Dims:     []float32{4, 5},
		HasDims:  true,
	})
	require.ErrorIs(t, err, ErrRejectedMeasurement)
	assert.Equal(t, before, f.State())
}

func TestLinear2D_CorrectRequiresDimsWhenConfigured(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{4, 5}, HasDims: true}))

	err := f.Correct(Measurement{Position: []float32{1, 1}})
	require.ErrorIs(t, err, ErrRejectedMeasurement)
}

func TestLinear2D_Reset(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0}, Dims: []float32{4, 5}, HasDims: true}))
	require.NoError(t, f.Predict(1))

	require.NoError(t, f.Reset(Measurement{Position: []float32{50, 60}, Dims: []float32{1, 1}, HasDims: true}))
	state := f.State()
	assert.InDelta(t, 50, state[0], 1e-6)
	assert.InDelta(t, 60, state[1], 1e-6)
	assert.InDelta(t, 0, state[2], 1e-6, "velocity must reset to zero on rebirth")
}

func TestLinear2D_Variant(t *testing.T) {
	t.Parallel()
	f := NewLinear2D(testConfig6())
	assert.Equal(t, Linear2D, f.Variant())
}
