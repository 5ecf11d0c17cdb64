package assoc

import "math"

// CostParams gates and weights the terms that make up an
// association cost. Each term is checked independently against its own
// threshold; any single violation forbids the pairing outright (the cost
// is set to the Hungarian sentinel) rather than being averaged away by
// the other terms. Defaults mirror the ROS node's tracker construction:
// DistThreshold=150, CenterThreshold=80, AreaThreshold=3, BodyRatio=0.5.
type CostParams struct {
	DistThreshold   float32 // gates and normalizes world-space center distance; 0 disables the gate and adds the raw distance
	CenterThreshold float32 // gates pixel-space center distance
	AreaThreshold   float32 // gates |log(areaB/areaA)|
	BodyRatio       float32 // target detection height/width ratio for the aspect-ratio penalty; 0 disables it
}

// Candidate is the minimal shape association needs from either side of a
// pairing (a predicted track state or a new detection): a pixel-space
// center and extent, plus an optional world-space position when the
// pipeline runs in 3D mode.
type Candidate struct {
	PixelX, PixelY         float32
	Width, Height          float32
	WorldX, WorldY, WorldZ float32
	HasWorld               bool
}

// forbidden is the cost assigned to a gated-out pairing; it must exceed
// hungarianlnf's own threshold test in HungarianAssign.
const forbidden = float32(hungarianlnf)

// pixelCenterDistance returns the Euclidean distance between two
// candidates' pixel centers.
func pixelCenterDistance(a, b Candidate) float32 {
	dx := a.PixelX - b.PixelX
	dy := a.PixelY - b.PixelY
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// worldCenterDistance returns the Euclidean distance between two
// candidates' world-space positions, and whether both carry one.
func worldCenterDistance(a, b Candidate) (float32, bool) {
	if !a.HasWorld || !b.HasWorld {
		return 0, false
	}
	dx := a.WorldX - b.WorldX
	dy := a.WorldY - b.WorldY
	dz := a.WorldZ - b.WorldZ
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz))), true
}

// logAreaRatio returns |log(areaB/areaA)|, or forbidden if either area is
// non-positive (a degenerate box must never win an assignment).
func logAreaRatio(a, b Candidate) float32 {
	areaA := a.Width * a.Height
	areaB := b.Width * b.Height
	if areaA <= 0 || areaB <= 0 {
		return forbidden
	}
	return float32(math.Abs(math.Log(float64(areaB / areaA))))
}

// aspectRatioPenalty returns the absolute difference between a
// detection's own height/width ratio and the configured body-ratio
// constant.
func aspectRatioPenalty(detection Candidate, bodyRatio float32) float32 {
	if detection.Width <= 0 {
		return forbidden
	}
	return float32(math.Abs(float64(detection.Height/detection.Width - bodyRatio)))
}

// Cost returns the gated association cost between a predicted track
// state and a candidate detection, or (forbidden, false) if any gated
// term exceeds its threshold. The returned cost is the sum of the
// surviving terms, matching spec §4.3's "weighted sum of normalized
// center distance, pixel center distance, log-area ratio, and
// body-aspect-ratio penalty, each independently gated".
func Cost(track, detection Candidate, params CostParams) (float32, bool) {
	pixelDist := pixelCenterDistance(track, detection)
	if params.CenterThreshold > 0 && pixelDist > params.CenterThreshold {
		return forbidden, false
	}

	total := pixelDist

	if worldDist, ok := worldCenterDistance(track, detection); ok {
		if params.DistThreshold > 0 && worldDist > params.DistThreshold {
			return forbidden, false
		}
		if params.DistThreshold > 0 {
			total += worldDist / params.DistThreshold
		} else {
			total += worldDist
		}
	}

	areaRatio := logAreaRatio(track, detection)
	if areaRatio >= forbidden {
		return forbidden, false
	}
	if params.AreaThreshold > 0 && areaRatio > params.AreaThreshold {
		return forbidden, false
	}
	total += areaRatio

	if params.BodyRatio > 0 {
		penalty := aspectRatioPenalty(detection, params.BodyRatio)
		if penalty >= forbidden {
			return forbidden, false
		}
		total += penalty
	}

	return total, true
}

// BuildCostMatrix builds the detections×tracks cost matrix HungarianAssign
// expects: rows are detections, columns are tracks, and a gated-out pair
// is set to the Hungarian sentinel so the solver never selects it.
func BuildCostMatrix(detections, tracks []Candidate, params CostParams) [][]float32 {
	matrix := make([][]float32, len(detections))
	for i, d := range detections {
		row := make([]float32, len(tracks))
		for j, tr := range tracks {
			cost, ok := Cost(tr, d, params)
			if !ok {
				row[j] = forbidden
			} else {
				row[j] = cost
			}
		}
		matrix[i] = row
	}
	return matrix
}
