// Package geometry holds the shared 2D/3D bounding-box types that flow
// between the detector, tracker, and depth projector, plus the letterbox
// bookkeeping used to map detections back into the original image frame.
package geometry

// BoundingBox2D is an axis-aligned box in image-pixel coordinates.
type BoundingBox2D struct {
	CenterX    float32
	CenterY    float32
	Width      float32
	Height     float32
	Confidence float32
	ClassID    int
	Valid      bool
}

// NewBoundingBox2D builds a valid box from center/extent and derives its
// corners on demand via Corners(). Width/height must be positive; an
// invalid (zero-area or inverted) box is returned with Valid=false so
// callers can filter it out rather than propagate a malformed region.
func NewBoundingBox2D(cx, cy, w, h, confidence float32, classID int) BoundingBox2D {
	b := BoundingBox2D{
		CenterX:    cx,
		CenterY:    cy,
		Width:      w,
		Height:     h,
		Confidence: confidence,
		ClassID:    classID,
	}
	b.Valid = w > 0 && h > 0
	return b
}

// Corners returns (xMin, yMin, xMax, yMax) for the box.
func (b BoundingBox2D) Corners() (xMin, yMin, xMax, yMax float32) {
	halfW := b.Width / 2
	halfH := b.Height / 2
	return b.CenterX - halfW, b.CenterY - halfH, b.CenterX + halfW, b.CenterY + halfH
}

// Area returns width*height, or 0 for an invalid box.
func (b BoundingBox2D) Area() float32 {
	if !b.Valid {
		return 0
	}
	return b.Width * b.Height
}

// BoundingBox3D is an axis-aligned box in camera-frame metres.
type BoundingBox3D struct {
	CenterX    float32
	CenterY    float32
	CenterZ    float32
	Width      float32
	Depth      float32
	Height     float32
	Confidence float32
	ClassID    int
	Valid      bool
}

// LetterboxParams describes the square, zero-padded resize applied to a
// frame before detection. Scale is the ratio of padded size to original
// size (image_size / max(rows, cols)); PadCols/PadRows are the symmetric
// zero-padding added on each axis to reach the square canvas.
type LetterboxParams struct {
	Scale   float32
	PadCols float32
	PadRows float32
}

// InvertBox maps a box detected in padded coordinates back into the
// original image coordinates: x ← (x − padCols)/scale, w ← w/scale, and
// likewise for y/h. Invalid input boxes pass through unchanged.
func (l LetterboxParams) InvertBox(b BoundingBox2D) BoundingBox2D {
	if !b.Valid || l.Scale <= 0 {
		return b
	}
	out := b
	out.CenterX = (b.CenterX - l.PadCols) / l.Scale
	out.CenterY = (b.CenterY - l.PadRows) / l.Scale
	out.Width = b.Width / l.Scale
	out.Height = b.Height / l.Scale
	return out
}

// InvertBoxes applies InvertBox to every box in every class slice and
// returns a new slice-of-slices; the input is left untouched.
func (l LetterboxParams) InvertBoxes(byClass [][]BoundingBox2D) [][]BoundingBox2D {
	out := make([][]BoundingBox2D, len(byClass))
	for c, boxes := range byClass {
		converted := make([]BoundingBox2D, len(boxes))
		for i, b := range boxes {
			converted[i] = l.InvertBox(b)
		}
		out[c] = converted
	}
	return out
}
