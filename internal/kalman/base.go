package kalman

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrFilterUnstable is returned (as a wrapped sentinel) when a predict or
// correct step produces a non-finite state. Tracker treats this the same
// as spec §7's "filter instability" case: reset the filter from the
// current measurement and restart the hit counter.
var ErrFilterUnstable = errors.New("kalman: filter unstable, reset required")

// largeUncertainty* seed the covariance diagonal at initialization; large
// relative to any sane measurement noise so the first correction pulls
// the state fully onto the first observation.
const (
	largeUncertaintyPos = 1000.0
	largeUncertaintyVel = 10000.0
	largeUncertaintyDim = 1000.0
)

// layout describes where each measurable quantity lives within a
// variant's state vector. Shared by all four concrete filters; only the
// index sets differ.
type layout struct {
	dim     int
	posIdx  []int // x, y[, z]
	velIdx  []int // vx, vy[, vz]
	dimIdx  []int // w, h[, d]
	headIdx int   // index of heading, -1 if the variant has none
}

// base implements the matrix algebra shared by every Kalman variant:
// initialize, the linear predict/correct skeleton, and the finite-state
// guard. Concrete variants build F (and, for the extended filter, the
// Jacobian) and call into these helpers — "shared matrix algebra lives in
// a helper, not an inheritance chain" (spec §9).
type base struct {
	variant Variant
	layout  layout
	cfg     Config

	x *mat.VecDense // dim
	p *mat.Dense    // dim x dim
	q *mat.Dense    // dim x dim, diagonal
}

func newBase(variant Variant, l layout, cfg Config) *base {
	return &base{
		variant: variant,
		layout:  l,
		cfg:     cfg,
		x:       mat.NewVecDense(l.dim, nil),
		p:       mat.NewDense(l.dim, l.dim, nil),
		q:       buildDiag(cfg.ProcessNoiseDiag, l.dim),
	}
}

func buildDiag(diag []float32, dim int) *mat.Dense {
	m := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim && i < len(diag); i++ {
		m.Set(i, i, float64(diag[i]))
	}
	return m
}

// initialize sets X from the measurement's position (and dims, if
// present), zeroes velocity, and seeds P with large diagonal uncertainty.
func (b *base) initialize(m Measurement) error {
	if !finiteMeasurement(m) {
		return ErrRejectedMeasurement
	}
	for i := range b.layout.posIdx {
		if i < len(m.Position) {
			b.x.SetVec(b.layout.posIdx[i], float64(m.Position[i]))
		}
	}
	if m.HasDims {
		for i := range b.layout.dimIdx {
			if i < len(m.Dims) {
				b.x.SetVec(b.layout.dimIdx[i], float64(m.Dims[i]))
			}
		}
	}
	for _, vi := range b.layout.velIdx {
		b.x.SetVec(vi, 0)
	}
	if b.layout.headIdx >= 0 {
		b.x.SetVec(b.layout.headIdx, float64(wrapAngle(m.Heading)))
	}

	b.p = mat.NewDense(b.layout.dim, b.layout.dim, nil)
	for _, pi := range b.layout.posIdx {
		b.p.Set(pi, pi, largeUncertaintyPos)
	}
	for _, vi := range b.layout.velIdx {
		b.p.Set(vi, vi, largeUncertaintyVel)
	}
	for _, di := range b.layout.dimIdx {
		b.p.Set(di, di, largeUncertaintyDim)
	}
	if b.layout.headIdx >= 0 {
		b.p.Set(b.layout.headIdx, b.layout.headIdx, largeUncertaintyPos)
	}
	return nil
}

// predictLinear propagates X ← F·X and P ← F·P·Fᵀ + Q for a linear
// transition matrix F. Extended variants call predictNonlinear instead.
func (b *base) predictLinear(f *mat.Dense) error {
	var xNew mat.VecDense
	xNew.MulVec(f, b.x)
	b.x = &xNew

	var fp mat.Dense
	fp.Mul(f, b.p)
	var fpft mat.Dense
	fpft.Mul(&fp, f.T())
	fpft.Add(&fpft, b.q)
	b.p = &fpft

	if b.layout.headIdx >= 0 {
		b.x.SetVec(b.layout.headIdx, float64(wrapAngle(float32(b.x.AtVec(b.layout.headIdx)))))
	}
	return b.finiteGuard()
}

// predictWithJacobian applies a (possibly nonlinear) state update xNew
// computed by the caller, and propagates covariance using the supplied
// Jacobian in place of F: P ← J·P·Jᵀ + Q.
func (b *base) predictWithJacobian(xNew *mat.VecDense, jacobian *mat.Dense) error {
	b.x = xNew
	var jp mat.Dense
	jp.Mul(jacobian, b.p)
	var jpjt mat.Dense
	jpjt.Mul(&jp, jacobian.T())
	jpjt.Add(&jpjt, b.q)
	b.p = &jpjt

	if b.layout.headIdx >= 0 {
		b.x.SetVec(b.layout.headIdx, float64(wrapAngle(float32(b.x.AtVec(b.layout.headIdx)))))
	}
	return b.finiteGuard()
}

// measurementSelection returns, in measurement order (position, then
// dims if observed, then velocity if observed), the state index each
// measurement component maps onto.
func (b *base) measurementSelection(useDim, useVel bool) []int {
	idx := append([]int{}, b.layout.posIdx...)
	if useDim {
		idx = append(idx, b.layout.dimIdx...)
	}
	if useVel {
		idx = append(idx, b.layout.velIdx...)
	}
	return idx
}

// buildMeasurementVector assembles z in the same order as
// measurementSelection: position, then dims, then velocity.
func buildMeasurementVector(m Measurement, useDim, useVel bool) ([]float32, bool) {
	z := append([]float32{}, m.Position...)
	if useDim {
		if !m.HasDims {
			return nil, false
		}
		z = append(z, m.Dims...)
	}
	if useVel {
		if !m.HasVel {
			return nil, false
		}
		z = append(z, m.Vel...)
	}
	return z, true
}

// correctLinear runs the standard Kalman correction: builds H from the
// measurement selection, S = H·P·Hᵀ + R, and rejects the measurement if S
// is not positive definite (spec §4.1 "Non-positive-definite S →
// measurement rejected, state untouched").
func (b *base) correctLinear(m Measurement, useDim, useVel bool, rDiag []float32) error {
	if !finiteMeasurement(m) {
		return ErrRejectedMeasurement
	}
	sel := b.measurementSelection(useDim, useVel)
	zVals, ok := buildMeasurementVector(m, useDim, useVel)
	if !ok || len(zVals) != len(sel) {
		return ErrRejectedMeasurement
	}
	mDim := len(sel)

	h := mat.NewDense(mDim, b.layout.dim, nil)
	for i, si := range sel {
		h.Set(i, si, 1)
	}
	r := buildDiag(rDiag, mDim)

	// S = H P H^T + R
	var hp mat.Dense
	hp.Mul(h, b.p)
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

	// B = P H^T (dim x mDim); solve S * K^T = B^T for K^T (mDim x dim).
	var b2 mat.Dense
	b2.Mul(b.p, h.T())
	var kT mat.Dense
	if err := chol.SolveTo(&kT, b2.T()); err != nil {
		return ErrRejectedMeasurement
	}

	// innovation y = z - H X
	var hx mat.VecDense
	hx.MulVec(h, b.x)
	y := mat.NewVecDense(mDim, nil)
	for i := 0; i < mDim; i++ {
		y.SetVec(i, float64(zVals[i])-hx.AtVec(i))
	}

	// X += K y = (K^T)^T y
	var dx mat.VecDense
	dx.MulVec(kT.T(), y)
	var xNew mat.VecDense
	xNew.AddVec(b.x, &dx)
	b.x = &xNew

	// P -= K S K^T = (K^T)^T S (K^T)
	var ks mat.Dense
	ks.Mul(kT.T(), &sDense)
	var kskt mat.Dense
	kskt.Mul(&ks, &kT)
	var pNew mat.Dense
	pNew.Sub(b.p, &kskt)
	b.p = &pNew

	if b.layout.headIdx >= 0 {
		b.x.SetVec(b.layout.headIdx, float64(wrapAngle(float32(b.x.AtVec(b.layout.headIdx)))))
	}
	return b.finiteGuard()
}

// finiteGuard returns ErrFilterUnstable if any element of X or the
// diagonal of P is NaN or ±Inf.
func (b *base) finiteGuard() error {
	for i := 0; i < b.layout.dim; i++ {
		if !isFinite(b.x.AtVec(i)) || !isFinite(b.p.At(i, i)) {
			return ErrFilterUnstable
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteMeasurement(m Measurement) bool {
	for _, v := range m.Position {
		if !isFinite(float64(v)) {
			return false
		}
	}
	for _, v := range m.Dims {
		if !isFinite(float64(v)) {
			return false
		}
	}
	for _, v := range m.Vel {
		if !isFinite(float64(v)) {
			return false
		}
	}
	return isFinite(float64(m.Heading))
}

func (b *base) state() []float32 {
	out := make([]float32, b.layout.dim)
	for i := range out {
		out[i] = float32(b.x.AtVec(i))
	}
	return out
}

func (b *base) uncertainty() []float32 {
	out := make([]float32, b.layout.dim)
	for i := range out {
		out[i] = float32(b.p.At(i, i))
	}
	return out
}
