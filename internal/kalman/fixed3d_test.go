package kalman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig5() Config {
	return Config{
		UseDim:               true,
		ProcessNoiseDiag:     []float32{9, 9, 9, 5, 5},
		MeasurementNoiseDiag: []float32{2, 2, 2, 2, 2},
	}
}

func TestFixed3D_PredictDoesNotMoveState(t *testing.T) {
	t.Parallel()
	f := NewFixed3D(testConfig5())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{3, 4, 5}, Dims: []float32{1, 2}, HasDims: true}))

	before := f.State()
	require.NoError(t, f.Predict(0.5))
	after := f.State()

	assert.Equal(t, before, after, "fixed3d has no velocity component, predict must not move position")
}

func TestFixed3D_PredictGrowsUncertainty(t *testing.T) {
	t.Parallel()
	f := NewFixed3D(testConfig5())
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0, 0}, Dims: []float32{1, 1}, HasDims: true}))

	before := f.Uncertainty()[0]
	require.NoError(t, f.Predict(1.0))
	after := f.Uncertainty()[0]

	assert.Greater(t, after, before)
}

func TestFixed3D_Variant(t *testing.T) {
	t.Parallel()
	f := NewFixed3D(testConfig5())
	assert.Equal(t, Fixed3D, f.Variant())
}
