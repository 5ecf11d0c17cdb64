// Package detection declares the boundary between this tracking core and
// whatever produces detections: a neural-network inference engine, a
// classical detector, or a recorded fixture in tests. Per spec, the core
// never runs inference or non-maximum suppression itself — it consumes
// already-suppressed, already-classified boxes through these interfaces.
package detection

import "github.com/brightline-vision/trackcore/internal/geometry"

// Frame is an opaque handle to a single image the host passed in; the
// core never decodes or inspects its contents directly. Concrete hosts
// can wrap an image.Image, a GPU buffer, or a path — whatever their own
// inference stack expects.
type Frame interface{}

// Detector produces per-class bounding boxes for one frame. The returned
// slice is indexed by class ID, matching config.TuningConfig.GetClassMap
// ordering. Implementations are expected to have already run NMS.
type Detector interface {
	Detect(frame Frame) ([][]geometry.BoundingBox2D, error)
}

// NMS is a pass-through seam for hosts that want the core to apply (or
// re-apply) suppression on externally-sourced boxes; the core's own
// pipeline never calls an NMS implementation unless the host wires one
// in explicitly, confirming the non-maximum-suppression non-goal.
type NMS interface {
	Suppress(boxes []geometry.BoundingBox2D, iouThreshold float32) []geometry.BoundingBox2D
}

// PassThroughNMS is the default NMS: it returns boxes unchanged. Used
// when the host's Detector has already suppressed its own output.
type PassThroughNMS struct{}

// Suppress returns boxes unchanged.
func (PassThroughNMS) Suppress(boxes []geometry.BoundingBox2D, _ float32) []geometry.BoundingBox2D {
	return boxes
}
