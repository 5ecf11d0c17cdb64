package kalman

import "gonum.org/v1/gonum/mat"

// fixed3DDim is the state size for Fixed3D: x, y, z, w, h. There is no
// velocity component; the filter models a near-static 3D position whose
// only motion is process noise (used for detections too sparse or too
// close to estimate velocity reliably, e.g. the ROS node's use_vel=false
// default path).
const fixed3DDim = 5

func fixed3DLayout() layout {
	return layout{
		dim:     fixed3DDim,
		posIdx:  []int{0, 1, 2},
		velIdx:  nil,
		dimIdx:  []int{3, 4},
		headIdx: -1,
	}
}

// Fixed3DFilter tracks a 3D position and 2D extent with no velocity
// state: predict is a pure random walk, covariance grows by Q alone.
type Fixed3DFilter struct {
	*base
}

// NewFixed3D constructs a Fixed3D filter from the given process and
// measurement noise configuration.
func NewFixed3D(cfg Config) *Fixed3DFilter {
	return &Fixed3DFilter{base: newBase(Fixed3D, fixed3DLayout(), cfg)}
}

func (f *Fixed3DFilter) Variant() Variant { return Fixed3D }

func (f *Fixed3DFilter) Initialize(m Measurement) error { return f.base.initialize(m) }

func (f *Fixed3DFilter) Reset(m Measurement) error { return f.base.initialize(m) }

// Predict applies the identity transition; state is unchanged, only P
// grows by Q.
func (f *Fixed3DFilter) Predict(dt float32) error {
	_ = clampDT(dt)
	identity := mat.NewDense(fixed3DDim, fixed3DDim, nil)
	for i := 0; i < fixed3DDim; i++ {
		identity.Set(i, i, 1)
	}
	return f.base.predictLinear(identity)
}

func (f *Fixed3DFilter) Correct(m Measurement) error {
	return f.base.correctLinear(m, f.cfg.UseDim, false, f.cfg.MeasurementNoiseDiag)
}

func (f *Fixed3DFilter) State() []float32       { return f.base.state() }
func (f *Fixed3DFilter) Uncertainty() []float32 { return f.base.uncertainty() }
