package tracking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/brightline-vision/trackcore/internal/assoc"
	"github.com/brightline-vision/trackcore/internal/geometry"
	"github.com/brightline-vision/trackcore/internal/kalman"
)

// ErrUnknownVariant is returned by NewTrackerPerClass when the configured
// Kalman variant is not one of the four known flavors.
var ErrUnknownVariant = errors.New("tracking: unknown kalman variant")

// TrackerConfig parameterizes one class's tracker: which Kalman variant
// and noise model its tracks use, the association cost/gating
// thresholds, and the lifecycle timing (how many consecutive misses kill
// a track, how many hits confirm a new one).
type TrackerConfig struct {
	Variant      kalman.Variant
	KalmanConfig kalman.Config
	CostParams   assoc.CostParams

	// MaxFramesToSkip is the maximum number of consecutive misses a
	// track tolerates before it is destroyed; it dies on the frame
	// where Misses exceeds this value, i.e. at MaxFramesToSkip+1
	// consecutive misses.
	MaxFramesToSkip int
	// HitsToConfirm is the number of hits a NEW track needs before it
	// reports as ACTIVE; the detection a track is born from counts as its
	// first hit and each successful correction adds one. Defaulted to 1 by
	// DefaultTrackerConfig to preserve the original tracker's
	// immediate-confirmation behavior.
	HitsToConfirm int

	// MinBBoxWidth, MinBBoxHeight, MaxBBoxWidth, and MaxBBoxHeight gate
	// which unmatched detections are allowed to birth a new track; a
	// detection outside this envelope is dropped rather than tracked. A
	// zero value disables the corresponding bound.
	MinBBoxWidth  float32
	MinBBoxHeight float32
	MaxBBoxWidth  float32
	MaxBBoxHeight float32
}

// DefaultTrackerConfig returns a TrackerConfig seeded from the ROS node's
// constructor defaults (dist_threshold=150, center_threshold=80,
// area_threshold=3, body_ratio=0.5, max_frames_to_skip=15).
func DefaultTrackerConfig(variant kalman.Variant) TrackerConfig {
	return TrackerConfig{
		Variant: variant,
		KalmanConfig: kalman.Config{
			UseDim:               true,
			ProcessNoiseDiag:     []float32{9, 9, 200, 200, 5, 5},
			MeasurementNoiseDiag: []float32{2, 2, 2, 2},
		},
		CostParams: assoc.CostParams{
			DistThreshold:   150,
			CenterThreshold: 80,
			AreaThreshold:   3,
			BodyRatio:       0.5,
		},
		MaxFramesToSkip: 15,
		HitsToConfirm:   1,
	}
}

// TrackerPerClass owns the set of tracks for a single detection class. It
// is safe for concurrent reads (Tracks) against a single in-flight
// Update, mirroring the "single-writer, many-reader" guarantee the
// teacher's Tracker.mu provides.
type TrackerPerClass struct {
	mu      sync.RWMutex
	classID int
	cfg     TrackerConfig
	tracks  map[string]*Track
	// nextID is the counter backing each new track's identifier. IDs are
	// unique per class and strictly increasing over the tracker's
	// lifetime, which a random identifier cannot guarantee; this tracker
	// never persists across process restarts, so a counter needs no
	// collision-safety beyond its own process.
	nextID int64
}

// NewTrackerPerClass constructs an empty tracker for the given class.
func NewTrackerPerClass(classID int, cfg TrackerConfig) *TrackerPerClass {
	return &TrackerPerClass{
		classID: classID,
		cfg:     cfg,
		tracks:  make(map[string]*Track),
	}
}

// Tracks returns a snapshot of every non-destroyed track, safe to read
// without racing a concurrent Update.
func (tr *TrackerPerClass) Tracks() []*Track {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]*Track, 0, len(tr.tracks))
	for _, t := range tr.tracks {
		out = append(out, snapshot(t))
	}
	return out
}

// Update runs one frame of the per-class tracking loop: predict every
// live track by dt, gate and cost-match against detections, resolve the
// assignment with the Hungarian algorithm, fold matches into their
// tracks, coast or kill unmatched tracks, and birth new tracks from
// unmatched detections. It returns a snapshot of every track alive after
// this frame (NEW, ACTIVE, or COAST — never DESTROYED).
func (tr *TrackerPerClass) Update(detections []geometry.BoundingBox2D, dt float32) ([]*Track, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	// Step 1: predict every live track forward by dt.
	liveIDs := make([]string, 0, len(tr.tracks))
	for id, t := range tr.tracks {
		if t.State == TrackDestroyed {
			continue
		}
		if err := t.Filter.Predict(dt); err != nil {
			// Filter instability: reset is deferred to the correction
			// step (or to birth, if this track goes unmatched and is
			// later destroyed); for now just mark misses as if the
			// prediction had failed to track this frame.
			t.Misses++
		}
		liveIDs = append(liveIDs, id)
		_ = id
	}

	// Step 2/3: build the gated cost matrix (detections × tracks).
	trackCandidates := make([]assoc.Candidate, len(liveIDs))
	for i, id := range liveIDs {
		x, y, w, h := pixelCenter(tr.tracks[id])
		trackCandidates[i] = assoc.Candidate{PixelX: x, PixelY: y, Width: w, Height: h}
	}
	detCandidates := make([]assoc.Candidate, len(detections))
	for i, d := range detections {
		detCandidates[i] = assoc.Candidate{PixelX: d.CenterX, PixelY: d.CenterY, Width: d.Width, Height: d.Height}
	}
	costMatrix := assoc.BuildCostMatrix(detCandidates, trackCandidates, tr.cfg.CostParams)

	// Step 4: solve the assignment.
	assignment := assoc.HungarianAssign(costMatrix)

	matchedTrack := make(map[string]bool, len(liveIDs))
	matchedDet := make([]bool, len(detections))

	// Step 5: fold matches into their tracks.
	for di, ti := range assignment {
		if ti < 0 {
			continue
		}
		id := liveIDs[ti]
		t := tr.tracks[id]
		d := detections[di]

		measurement := kalman.Measurement{
			Position: []float32{d.CenterX, d.CenterY},
			Dims:     []float32{d.Width, d.Height},
			HasDims:  true,
		}
		if err := t.Filter.Correct(measurement); err != nil {
			if errors.Is(err, kalman.ErrFilterUnstable) {
				_ = t.Filter.Reset(measurement)
				t.Hits = 1
			}
			// ErrRejectedMeasurement: leave the track as unmatched this
			// frame rather than silently accepting a bad correction.
			continue
		}

		t.Hits++
		t.Misses = 0
		t.Box = d
		if t.State == TrackNew && t.Hits >= tr.cfg.HitsToConfirm {
			t.State = TrackActive
		} else if t.State == TrackCoast {
			t.State = TrackActive
		}
		matchedTrack[id] = true
		matchedDet[di] = true
	}

	// Step 6: coast or kill every unmatched live track.
	for _, id := range liveIDs {
		if matchedTrack[id] {
			tr.tracks[id].Age++
			continue
		}
		t := tr.tracks[id]
		t.Misses++
		t.Age++
		if t.State == TrackActive {
			t.State = TrackCoast
		}
		if t.Misses > tr.cfg.MaxFramesToSkip {
			t.State = TrackDestroyed
		}
	}

	// Step 7: birth a new track for every unmatched detection that falls
	// inside the configured box-size envelope.
	for di, d := range detections {
		if matchedDet[di] {
			continue
		}
		if !tr.acceptableSize(d) {
			continue
		}
		if err := tr.birth(d); err != nil {
			return nil, err
		}
	}

	// Cleanup: drop destroyed tracks from the map.
	alive := make([]*Track, 0, len(tr.tracks))
	for id, t := range tr.tracks {
		if t.State == TrackDestroyed {
			delete(tr.tracks, id)
			continue
		}
		alive = append(alive, snapshot(t))
	}
	return alive, nil
}

// acceptableSize reports whether a detection's box falls within the
// configured min/max width and height; a zero bound is unset and never
// rejects.
func (tr *TrackerPerClass) acceptableSize(d geometry.BoundingBox2D) bool {
	cfg := tr.cfg
	if cfg.MinBBoxWidth > 0 && d.Width < cfg.MinBBoxWidth {
		return false
	}
	if cfg.MinBBoxHeight > 0 && d.Height < cfg.MinBBoxHeight {
		return false
	}
	if cfg.MaxBBoxWidth > 0 && d.Width > cfg.MaxBBoxWidth {
		return false
	}
	if cfg.MaxBBoxHeight > 0 && d.Height > cfg.MaxBBoxHeight {
		return false
	}
	return true
}

// birth creates a new NEW-state track from an unmatched detection.
func (tr *TrackerPerClass) birth(d geometry.BoundingBox2D) error {
	filter, err := kalman.New(tr.cfg.Variant, tr.cfg.KalmanConfig)
	if err != nil {
		return err
	}
	measurement := kalman.Measurement{
		Position: []float32{d.CenterX, d.CenterY},
		Dims:     []float32{d.Width, d.Height},
		HasDims:  true,
	}
	if err := filter.Initialize(measurement); err != nil {
		return err
	}

	track := &Track{
		ID:      fmt.Sprintf("trk_%d_%d", tr.classID, tr.nextID),
		ClassID: tr.classID,
		State:   TrackNew,
		Filter:  filter,
		Hits:    1,
		Box:     d,
	}
	tr.nextID++
	if track.Hits >= tr.cfg.HitsToConfirm {
		track.State = TrackActive
	}
	tr.tracks[track.ID] = track
	return nil
}
