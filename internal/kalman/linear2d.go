package kalman

import "gonum.org/v1/gonum/mat"

// linear2DDim is the state size for Linear2D: x, y, vx, vy, w, h.
const linear2DDim = 6

func linear2DLayout() layout {
	return layout{
		dim:     linear2DDim,
		posIdx:  []int{0, 1},
		velIdx:  []int{2, 3},
		dimIdx:  []int{4, 5},
		headIdx: -1,
	}
}

// Linear2DFilter is a constant-velocity Kalman filter over an image-plane
// bounding box: position (x, y), velocity (vx, vy), and extent (w, h). It
// is the filter used for tracks that carry no heading estimate.
type Linear2DFilter struct {
	*base
}

// NewLinear2D constructs a Linear2D filter from the given process and
// measurement noise configuration.
func NewLinear2D(cfg Config) *Linear2DFilter {
	return &Linear2DFilter{base: newBase(Linear2D, linear2DLayout(), cfg)}
}

func (f *Linear2DFilter) Variant() Variant { return Linear2D }

func (f *Linear2DFilter) Initialize(m Measurement) error { return f.base.initialize(m) }

func (f *Linear2DFilter) Reset(m Measurement) error { return f.base.initialize(m) }

// Predict propagates state with a constant-velocity transition:
// x' = x + vx*dt, y' = y + vy*dt, velocity and extent unchanged.
func (f *Linear2DFilter) Predict(dt float32) error {
	dt = clampDT(dt)
	fMat := mat.NewDense(linear2DDim, linear2DDim, nil)
	for i := 0; i < linear2DDim; i++ {
		fMat.Set(i, i, 1)
	}
	fMat.Set(0, 2, float64(dt))
	fMat.Set(1, 3, float64(dt))
	return f.base.predictLinear(fMat)
}

func (f *Linear2DFilter) Correct(m Measurement) error {
	return f.base.correctLinear(m, f.cfg.UseDim, f.cfg.UseVel, f.cfg.MeasurementNoiseDiag)
}

func (f *Linear2DFilter) State() []float32       { return f.base.state() }
func (f *Linear2DFilter) Uncertainty() []float32 { return f.base.uncertainty() }
