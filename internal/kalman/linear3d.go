package kalman

import "gonum.org/v1/gonum/mat"

// linear3DDim is the state size for Linear3D: x, y, z, vx, vy, vz, w, h.
const linear3DDim = 8

func linear3DLayout() layout {
	return layout{
		dim:     linear3DDim,
		posIdx:  []int{0, 1, 2},
		velIdx:  []int{3, 4, 5},
		dimIdx:  []int{6, 7},
		headIdx: -1,
	}
}

// Linear3DFilter is a constant-velocity Kalman filter over a camera-frame
// 3D position (x, y, z), velocity (vx, vy, vz), and a 2D extent (w, h)
// carried through from the source detection.
type Linear3DFilter struct {
	*base
}

// NewLinear3D constructs a Linear3D filter from the given process and
// measurement noise configuration.
func NewLinear3D(cfg Config) *Linear3DFilter {
	return &Linear3DFilter{base: newBase(Linear3D, linear3DLayout(), cfg)}
}

func (f *Linear3DFilter) Variant() Variant { return Linear3D }

func (f *Linear3DFilter) Initialize(m Measurement) error { return f.base.initialize(m) }

func (f *Linear3DFilter) Reset(m Measurement) error { return f.base.initialize(m) }

// Predict propagates position by velocity*dt; velocity and extent are
// left unchanged by the transition.
func (f *Linear3DFilter) Predict(dt float32) error {
	dt = clampDT(dt)
	fMat := mat.NewDense(linear3DDim, linear3DDim, nil)
	for i := 0; i < linear3DDim; i++ {
		fMat.Set(i, i, 1)
	}
	fMat.Set(0, 3, float64(dt))
	fMat.Set(1, 4, float64(dt))
	fMat.Set(2, 5, float64(dt))
	return f.base.predictLinear(fMat)
}

func (f *Linear3DFilter) Correct(m Measurement) error {
	return f.base.correctLinear(m, f.cfg.UseDim, f.cfg.UseVel, f.cfg.MeasurementNoiseDiag)
}

func (f *Linear3DFilter) State() []float32       { return f.base.state() }
func (f *Linear3DFilter) Uncertainty() []float32 { return f.base.uncertainty() }
