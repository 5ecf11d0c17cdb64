package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// extended2DHDim is the state size for Extended2DH:
// x, y, theta, vx, vy, vtheta, w, h.
const extended2DHDim = 8

const (
	headingIdx = 2
)

func extended2DHLayout() layout {
	return layout{
		dim:     extended2DHDim,
		posIdx:  []int{0, 1},
		velIdx:  []int{3, 4, 5},
		dimIdx:  []int{6, 7},
		headIdx: headingIdx,
	}
}

// Extended2DHFilter is the extended Kalman filter variant that carries a
// heading estimate alongside position, velocity, and extent. Position
// advances along the heading: (vx, vy) are body-frame velocities, rotated
// into the world frame by the current heading before being applied to
// (x, y). This is the one genuinely nonlinear transition among the four
// variants, so the Jacobian is recomputed every predict from the current
// state rather than reused as a constant F, matching
// BaseExtendedKalmanFilter's dFdX_ bookkeeping in the original source.
type Extended2DHFilter struct {
	*base
}

// NewExtended2DH constructs an Extended2DH filter from the given process
// and measurement noise configuration.
func NewExtended2DH(cfg Config) *Extended2DHFilter {
	return &Extended2DHFilter{base: newBase(Extended2DH, extended2DHLayout(), cfg)}
}

func (f *Extended2DHFilter) Variant() Variant { return Extended2DH }

func (f *Extended2DHFilter) Initialize(m Measurement) error { return f.base.initialize(m) }

func (f *Extended2DHFilter) Reset(m Measurement) error { return f.base.initialize(m) }

// jacobian builds dF/dX for the current state around (theta, vx, vy):
// position rotates the body-frame velocity by the current heading, so its
// partials with respect to theta, vx, and vy are nonlinear; every other
// row (theta += vtheta*dt, velocities and extent unchanged) is linear and
// contributes only its identity/dt entries.
func (f *Extended2DHFilter) jacobian(dt float32, theta, vx, vy float64) *mat.Dense {
	j := mat.NewDense(extended2DHDim, extended2DHDim, nil)
	for i := 0; i < extended2DHDim; i++ {
		j.Set(i, i, 1)
	}
	dtf := float64(dt)
	cosT := math.Cos(theta)
	sinT := math.Sin(theta)

	j.Set(0, 2, -vx*dtf*sinT-vy*dtf*cosT) // dx'/dtheta
	j.Set(0, 3, dtf*cosT)                 // dx'/dvx
	j.Set(0, 4, -dtf*sinT)                // dx'/dvy

	j.Set(1, 2, vx*dtf*cosT-vy*dtf*sinT) // dy'/dtheta
	j.Set(1, 3, dtf*sinT)                // dy'/dvx
	j.Set(1, 4, dtf*cosT)                // dy'/dvy

	j.Set(2, 5, dtf) // dtheta'/dvtheta
	return j
}

// Predict rotates the body-frame velocity (vx, vy) into the world frame by
// the current heading before advancing (x, y), advances theta by
// vtheta*dt, wraps theta, and propagates covariance through the Jacobian
// linearized around the pre-predict state.
func (f *Extended2DHFilter) Predict(dt float32) error {
	dt = clampDT(dt)
	dtf := float64(dt)

	x := f.base.x.AtVec(0)
	y := f.base.x.AtVec(1)
	theta := f.base.x.AtVec(headingIdx)
	vx := f.base.x.AtVec(3)
	vy := f.base.x.AtVec(4)
	vtheta := f.base.x.AtVec(5)
	cosT := math.Cos(theta)
	sinT := math.Sin(theta)

	xNew := mat.NewVecDense(extended2DHDim, nil)
	xNew.SetVec(0, x+vx*dtf*cosT-vy*dtf*sinT)
	xNew.SetVec(1, y+vx*dtf*sinT+vy*dtf*cosT)
	xNew.SetVec(headingIdx, theta+vtheta*dtf)
	xNew.SetVec(3, vx)
	xNew.SetVec(4, vy)
	xNew.SetVec(5, vtheta)
	xNew.SetVec(6, f.base.x.AtVec(6))
	xNew.SetVec(7, f.base.x.AtVec(7))
	xNew.SetVec(headingIdx, float64(wrapAngle(float32(xNew.AtVec(headingIdx)))))

	j := f.jacobian(dt, theta, vx, vy)
	return f.base.predictWithJacobian(xNew, j)
}

// Correct folds in position, heading, and (if configured) extent/velocity.
// Heading is always observed for this variant; it is measured
// independently of Position/Dims/Vel, so the correction is assembled here
// rather than through the shared correctLinear selection order.
func (f *Extended2DHFilter) Correct(m Measurement) error {
	if !finiteMeasurement(m) {
		return ErrRejectedMeasurement
	}
	sel := append([]int{}, f.layout.posIdx...)
	sel = append(sel, headingIdx)
	zVals := append([]float32{}, m.Position...)
	zVals = append(zVals, m.Heading)

	if f.cfg.UseDim {
		if !m.HasDims {
			return ErrRejectedMeasurement
		}
		sel = append(sel, f.layout.dimIdx...)
		zVals = append(zVals, m.Dims...)
	}
	if f.cfg.UseVel {
		if !m.HasVel {
			return ErrRejectedMeasurement
		}
		sel = append(sel, f.layout.velIdx[:2]...) // vx, vy only; vtheta has no direct measurement
		zVals = append(zVals, m.Vel...)
	}
	if len(zVals) != len(sel) {
		return ErrRejectedMeasurement
	}
	mDim := len(sel)

	h := mat.NewDense(mDim, extended2DHDim, nil)
	for i, si := range sel {
		h.Set(i, si, 1)
	}
	r := buildDiag(f.cfg.MeasurementNoiseDiag, mDim)

	var hp mat.Dense
	hp.Mul(h, f.base.p)
	var hpht mat.Dense
	hpht.Mul(&hp, h.T())
	var sDense mat.Dense
	sDense.Add(&hpht, r)

	sSym := mat.NewSymDense(mDim, nil)
	for i := 0; i < mDim; i++ {
		for j := 0; j < mDim; j++ {
			sSym.SetSym(i, j, sDense.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sSym); !ok {
		return ErrRejectedMeasurement
	}

	var b2 mat.Dense
	b2.Mul(f.base.p, h.T())
	var kT mat.Dense
	if err := chol.SolveTo(&kT, b2.T()); err != nil {
		return ErrRejectedMeasurement
	}

	var hx mat.VecDense
	hx.MulVec(h, f.base.x)
	y := mat.NewVecDense(mDim, nil)
	for i := 0; i < mDim; i++ {
		diff := float64(zVals[i]) - hx.AtVec(i)
		if si := sel[i]; si == headingIdx {
			diff = float64(wrapAngle(float32(diff)))
		}
		y.SetVec(i, diff)
	}

	var dx mat.VecDense
	dx.MulVec(kT.T(), y)
	var xNew mat.VecDense
	xNew.AddVec(f.base.x, &dx)
	xNew.SetVec(headingIdx, float64(wrapAngle(float32(xNew.AtVec(headingIdx)))))
	f.base.x = &xNew

	var ks mat.Dense
	ks.Mul(kT.T(), &sDense)
	var kskt mat.Dense
	kskt.Mul(&ks, &kT)
	var pNew mat.Dense
	pNew.Sub(f.base.p, &kskt)
	f.base.p = &pNew

	return f.base.finiteGuard()
}

func (f *Extended2DHFilter) State() []float32       { return f.base.state() }
func (f *Extended2DHFilter) Uncertainty() []float32 { return f.base.uncertainty() }
