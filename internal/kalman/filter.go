// Package kalman implements the Kalman filter family used for per-track
// motion estimation: a linear 2D filter, a linear 3D filter, an extended
// 2D filter with heading, and a fixed (no-velocity) 3D filter. All four
// share the same predict/correct contract and matrix-algebra helpers in
// base.go; only the state layout and transition model differ per variant.
package kalman

import (
	"errors"
	"math"
)

// ErrRejectedMeasurement is returned by Correct when the measurement is
// non-finite or would produce a non-positive-definite innovation
// covariance. The filter state is left untouched.
var ErrRejectedMeasurement = errors.New("kalman: measurement rejected")

// Variant tags which concrete filter a Filter value implements. Tests and
// factories branch on it instead of a type switch on unexported types.
type Variant int

const (
	Linear2D Variant = iota
	Linear3D
	Extended2DH
	Fixed3D
)

// Measurement is a single observation fed to Correct. Position is always
// present (2 components for the 2D variants, 3 for the 3D variants).
// Dims and Vel are populated only when the filter's configuration has
// UseDim/UseVel set; the filter ignores them otherwise.
type Measurement struct {
	Position []float32 // len 2 or 3
	Dims     []float32 // len 2 (w,h) for every variant; Extended2DH carries heading separately
	Vel      []float32 // same length as Position
	Heading  float32   // radians; only meaningful for Extended2DH
	HasDims  bool
	HasVel   bool
}

// Config parameterizes a filter instance. ProcessNoiseDiag and
// MeasurementNoiseDiag are diagonals sized to the filter's full state and
// to the observed measurement respectively; callers build these from
// user-supplied per-component variances (config.TuningConfig's
// ProcessNoise/MeasurementNoise).
type Config struct {
	UseDim               bool
	UseVel               bool
	ProcessNoiseDiag     []float32
	MeasurementNoiseDiag []float32
}

// Filter is the shared contract for all four Kalman variants (spec §4.1,
// §9 — "a single Filter interface exposing predict/correct/state, plus a
// tagged variant enumerating the four flavors").
type Filter interface {
	// Variant reports which concrete flavor this filter implements.
	Variant() Variant
	// Initialize sets X from measurement and P to a large diagonal
	// uncertainty, building Q from the configured process-noise diagonal.
	Initialize(m Measurement) error
	// Predict advances the state by dt seconds. dt ≤ 0 is clamped to a
	// small positive epsilon to avoid a singular covariance.
	Predict(dt float32) error
	// Correct folds in a new measurement. Returns ErrRejectedMeasurement
	// (state untouched) on NaN input or a non-positive-definite
	// innovation covariance.
	Correct(m Measurement) error
	// State returns a copy of the current state vector.
	State() []float32
	// Uncertainty returns a copy of the covariance diagonal.
	Uncertainty() []float32
	// Reset re-initializes the filter from a fresh measurement, used on
	// re-birth rather than ordinary update.
	Reset(m Measurement) error
}

// New constructs the concrete filter for the requested variant. Tracker
// calls this once per track at birth rather than switching on variant at
// every predict/correct call.
func New(variant Variant, cfg Config) (Filter, error) {
	switch variant {
	case Linear2D:
		return NewLinear2D(cfg), nil
	case Linear3D:
		return NewLinear3D(cfg), nil
	case Extended2DH:
		return NewExtended2DH(cfg), nil
	case Fixed3D:
		return NewFixed3D(cfg), nil
	default:
		return nil, errors.New("kalman: unknown variant")
	}
}

// StateLayout exposes where position, velocity, extent, and (if present)
// heading live within a variant's state vector, so callers outside this
// package (the tracker, the depth projector) can read State() without
// duplicating each variant's index assignment.
func StateLayout(v Variant) (dim int, posIdx, velIdx, dimIdx []int, headingIdx int) {
	var l layout
	switch v {
	case Linear2D:
		l = linear2DLayout()
	case Linear3D:
		l = linear3DLayout()
	case Extended2DH:
		l = extended2DHLayout()
	case Fixed3D:
		l = fixed3DLayout()
	default:
		return 0, nil, nil, nil, -1
	}
	return l.dim, l.posIdx, l.velIdx, l.dimIdx, l.headIdx
}

// minDT is the epsilon dt is clamped to when the caller supplies dt ≤ 0.
const minDT = 1e-3

// clampDT returns dt, or minDT if dt is non-positive.
func clampDT(dt float32) float32 {
	if dt <= 0 {
		return minDT
	}
	return dt
}

// wrapAngle normalizes theta to (−π, π].
func wrapAngle(theta float32) float32 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
