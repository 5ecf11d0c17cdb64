package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigHeading() Config {
	return Config{
		UseDim:               true,
		ProcessNoiseDiag:     []float32{9, 9, 0.05, 200, 200, 0.1, 5, 5},
		MeasurementNoiseDiag: []float32{2, 2, 0.02, 2, 2},
	}
}

func TestExtended2DH_InitializeSetsHeading(t *testing.T) {
	t.Parallel()
	f := NewExtended2DH(testConfigHeading())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{0, 0},
		Dims:     []float32{1, 1},
		HasDims:  true,
		Heading:  1.0,
	}))
	assert.InDelta(t, 1.0, f.State()[headingIdx], 1e-6)
}

func TestExtended2DH_PredictWrapsHeading(t *testing.T) {
	t.Parallel()
	f := NewExtended2DH(testConfigHeading())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{0, 0},
		Dims:     []float32{1, 1},
		HasDims:  true,
		Heading:  float32(math.Pi - 0.1),
	}))
	f.base.x.SetVec(headingIdx+3, 1.0) // vtheta, pushes heading past +pi

	require.NoError(t, f.Predict(0.5))

	heading := f.State()[headingIdx]
	assert.LessOrEqual(t, heading, float32(math.Pi))
	assert.Greater(t, heading, float32(-math.Pi))
}

func TestExtended2DH_CorrectWrapsHeadingInnovation(t *testing.T) {
	t.Parallel()
	f := NewExtended2DH(testConfigHeading())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{0, 0},
		Dims:     []float32{1, 1},
		HasDims:  true,
		Heading:  float32(math.Pi - 0.05),
	}))
	require.NoError(t, f.Predict(0.1))

	// Measurement sits just past -pi, i.e. very close to the predicted
	// heading when wrapped, not ~2*pi away.
	err := f.Correct(Measurement{
		Position: []float32{0, 0},
		Dims:     []float32{1, 1},
		HasDims:  true,
		Heading:  float32(-math.Pi + 0.05),
	})
	require.NoError(t, err)

	heading := f.State()[headingIdx]
	// The corrected heading should stay near +/- pi, not jump toward 0.
	assert.Greater(t, math.Abs(float64(heading)), math.Pi/2)
}

func TestExtended2DH_PredictRotatesVelocityByHeading(t *testing.T) {
	t.Parallel()
	f := NewExtended2DH(testConfigHeading())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{0, 0},
		Dims:     []float32{1, 1},
		HasDims:  true,
		Heading:  float32(math.Pi / 2),
	}))
	f.base.x.SetVec(3, 2.0) // vx, a forward body-frame velocity

	require.NoError(t, f.Predict(1.0))

	// Facing +pi/2, a positive body-frame vx should advance +y, not +x.
	assert.InDelta(t, 0, f.State()[0], 1e-4)
	assert.InDelta(t, 2, f.State()[1], 1e-4)
}

func TestExtended2DH_Variant(t *testing.T) {
	t.Parallel()
	f := NewExtended2DH(testConfigHeading())
	assert.Equal(t, Extended2DH, f.Variant())
}
