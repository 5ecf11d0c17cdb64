package kalman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig8() Config {
	return Config{
		UseDim:               true,
		ProcessNoiseDiag:     []float32{9, 9, 9, 200, 200, 200, 5, 5},
		MeasurementNoiseDiag: []float32{2, 2, 2, 2, 2},
	}
}

func TestLinear3D_InitializeAndPredict(t *testing.T) {
	t.Parallel()
	f := NewLinear3D(testConfig8())
	require.NoError(t, f.Initialize(Measurement{
		Position: []float32{1, 2, 3},
		Dims:     []float32{4, 5},
		HasDims:  true,
	}))
	f.base.x.SetVec(3, 1) // vx
	f.base.x.SetVec(5, 2) // vz

	require.NoError(t, f.Predict(1.0))

	state := f.State()
	assert.InDelta(t, 2, state[0], 1e-4) // x += vx*dt
	assert.InDelta(t, 2, state[1], 1e-4) // y unchanged, vy=0
	assert.InDelta(t, 5, state[2], 1e-4) // z += vz*dt
}

func TestLinear3D_CorrectWithVelocity(t *testing.T) {
	t.Parallel()
	cfg := testConfig8()
	cfg.UseVel = true
	cfg.MeasurementNoiseDiag = []float32{2, 2, 2, 2, 2, 1, 1, 1}
	f := NewLinear3D(cfg)
	require.NoError(t, f.Initialize(Measurement{Position: []float32{0, 0, 0}, Dims: []float32{1, 1}, HasDims: true}))
	require.NoError(t, f.Predict(0.1))

	err := f.Correct(Measurement{
		Position: []float32{1, 1, 1},
		Dims:     []float32{2, 2},
		HasDims:  true,
		Vel:      []float32{0.5, 0.5, 0.5},
		HasVel:   true,
	})
	require.NoError(t, err)
}

func TestLinear3D_Variant(t *testing.T) {
	t.Parallel()
	f := NewLinear3D(testConfig8())
	assert.Equal(t, Linear3D, f.Variant())
}
