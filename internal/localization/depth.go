package localization

import (
	"errors"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/brightline-vision/trackcore/internal/geometry"
)

// ErrNoIntrinsics is returned by Project when the estimator has not yet
// received a camera intrinsics update (the ROS node's "wait for
// CameraInfo" state before the first depth/detection callback pair).
var ErrNoIntrinsics = errors.New("localization: intrinsics not yet received")

// ErrNoValidSamples is returned by Project when every depth sample inside
// the (inset) detection box was outside [MinRange, MaxRange] or
// otherwise unusable.
var ErrNoValidSamples = errors.New("localization: no valid depth samples in box")

// Intrinsics is a pinhole camera model: focal lengths and principal
// point in pixels.
type Intrinsics struct {
	FX, FY float64
	CX, CY float64
}

// Position3D is a camera-frame 3D point, in the same units as the depth
// frame (conventionally metres).
type Position3D struct {
	X, Y, Z float32
}

// DepthFrame is the minimal depth-image contract Project needs: a
// per-pixel range sample, consumed as a black box (decoding, undistortion,
// and alignment to the color frame are the host's responsibility, per
// spec's image-I/O non-goal).
type DepthFrame interface {
	// At returns the depth (range) sample at pixel (row, col), or false
	// if the pixel carries no valid reading.
	At(row, col int) (float32, bool)
	Rows() int
	Cols() int
}

// Config parameterizes the robust depth estimate and range gating.
type Config struct {
	// RejectionThreshold is the fraction of each box edge trimmed before
	// sampling depth, so a box's background edges (common on rectangular
	// detections of round/irregular objects) don't pollute the estimate.
	RejectionThreshold float64
	MinRange           float64
	MaxRange           float64
}

// PoseEstimator projects 2D detections into 3D camera-frame positions via
// pinhole back-projection: X=(u−cx)·z/fx, Y=(v−cy)·z/fy, Z=z, where z is
// a robust (trimmed-mean) depth sample from inside the detection box.
//
// Intrinsics are guarded by a RWMutex mirroring the teacher's
// single-writer/many-reader Tracker.mu pattern: they are set once (or
// rarely, on a calibration update) and read on every Project call.
type PoseEstimator struct {
	mu         sync.RWMutex
	intrinsics *Intrinsics
	cfg        Config
}

// NewPoseEstimator constructs an estimator with no intrinsics yet;
// Project returns ErrNoIntrinsics until UpdateCameraParameters is called.
func NewPoseEstimator(cfg Config) *PoseEstimator {
	return &PoseEstimator{cfg: cfg}
}

// UpdateCameraParameters sets (or replaces) the camera intrinsics used by
// subsequent Project calls.
func (p *PoseEstimator) UpdateCameraParameters(in Intrinsics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := in
	p.intrinsics = &cp
}

// HasIntrinsics reports whether UpdateCameraParameters has been called.
func (p *PoseEstimator) HasIntrinsics() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.intrinsics != nil
}

// Project back-projects a 2D detection box into a 3D camera-frame
// position using a robust depth sample drawn from the box interior.
func (p *PoseEstimator) Project(box geometry.BoundingBox2D, depth DepthFrame) (Position3D, error) {
	p.mu.RLock()
	intr := p.intrinsics
	p.mu.RUnlock()
	if intr == nil {
		return Position3D{}, ErrNoIntrinsics
	}
	if !box.Valid {
		return Position3D{}, ErrNoValidSamples
	}

	z, err := p.robustDepth(box, depth)
	if err != nil {
		return Position3D{}, err
	}

	u, v := float64(box.CenterX), float64(box.CenterY)
	x := (u - intr.CX) * float64(z) / intr.FX
	y := (v - intr.CY) * float64(z) / intr.FY

	return Position3D{X: float32(x), Y: float32(y), Z: z}, nil
}

// robustDepth samples the inset interior of box (trimmed by
// RejectionThreshold on each edge), discards out-of-range or invalid
// pixels, and returns the trimmed mean of what remains.
func (p *PoseEstimator) robustDepth(box geometry.BoundingBox2D, depth DepthFrame) (float32, error) {
	xMin, yMin, xMax, yMax := box.Corners()
	insetX := (xMax - xMin) * float32(p.cfg.RejectionThreshold)
	insetY := (yMax - yMin) * float32(p.cfg.RejectionThreshold)
	xMin += insetX
	xMax -= insetX
	yMin += insetY
	yMax -= insetY

	rows, cols := depth.Rows(), depth.Cols()
	rowStart := clampInt(int(yMin), 0, rows-1)
	rowEnd := clampInt(int(yMax), 0, rows-1)
	colStart := clampInt(int(xMin), 0, cols-1)
	colEnd := clampInt(int(xMax), 0, cols-1)

	samples := make([]float64, 0, (rowEnd-rowStart+1)*(colEnd-colStart+1))
	for r := rowStart; r <= rowEnd; r++ {
		for c := colStart; c <= colEnd; c++ {
			v, ok := depth.At(r, c)
			if !ok {
				continue
			}
			fv := float64(v)
			if math.IsNaN(fv) || math.IsInf(fv, 0) {
				continue
			}
			if fv < p.cfg.MinRange || fv > p.cfg.MaxRange {
				continue
			}
			samples = append(samples, fv)
		}
	}
	if len(samples) == 0 {
		return 0, ErrNoValidSamples
	}

	sort.Float64s(samples)
	// Trim the extreme RejectionThreshold fraction from each tail before
	// averaging, via gonum/stat's quantile-bounded mean.
	lowQ := stat.Quantile(p.cfg.RejectionThreshold, stat.Empirical, samples, nil)
	highQ := stat.Quantile(1-p.cfg.RejectionThreshold, stat.Empirical, samples, nil)
	trimmed := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s >= lowQ && s <= highQ {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) == 0 {
		trimmed = samples
	}

	mean := stat.Mean(trimmed, nil)
	return float32(mean), nil
}

// ProjectBox3D is Project plus a metric width/height/depth synthesized
// from the source box's pixel extent at the projected depth:
// w=box.Width·z/fx, h=box.Height·z/fy. Front-to-back extent is not
// observable from a single depth sample, so Depth is set equal to Width
// under an isotropic assumption unless a caller overwrites it with a
// class-specific prior.
func (p *PoseEstimator) ProjectBox3D(box geometry.BoundingBox2D, depth DepthFrame) (geometry.BoundingBox3D, error) {
	p.mu.RLock()
	intr := p.intrinsics
	p.mu.RUnlock()
	if intr == nil {
		return geometry.BoundingBox3D{}, ErrNoIntrinsics
	}

	pos, err := p.Project(box, depth)
	if err != nil {
		return geometry.BoundingBox3D{}, err
	}

	width := box.Width * pos.Z / float32(intr.FX)

	return geometry.BoundingBox3D{
		CenterX:    pos.X,
		CenterY:    pos.Y,
		CenterZ:    pos.Z,
		Width:      width,
		Height:     box.Height * pos.Z / float32(intr.FY),
		Depth:      width,
		Confidence: box.Confidence,
		ClassID:    box.ClassID,
		Valid:      true,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
