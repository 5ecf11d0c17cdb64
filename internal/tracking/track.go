package tracking

import (
	"github.com/brightline-vision/trackcore/internal/geometry"
	"github.com/brightline-vision/trackcore/internal/kalman"
)

// TrackState is a track's position in the NEW → ACTIVE ⇄ COAST →
// DESTROYED lifecycle.
type TrackState int

const (
	// TrackNew is a just-born track that has not yet accumulated enough
	// hits to be reported as confirmed.
	TrackNew TrackState = iota
	// TrackActive is a confirmed track that was matched in the most
	// recent frame.
	TrackActive
	// TrackCoast is a confirmed track predicted forward without a
	// matching detection; it still reports a (growing-uncertainty)
	// position until MaxFramesToSkip is exceeded.
	TrackCoast
	// TrackDestroyed is a track removed from the tracker at the end of
	// the frame that pushed it past MaxFramesToSkip misses.
	TrackDestroyed
)

// String renders the track state for logging.
func (s TrackState) String() string {
	switch s {
	case TrackNew:
		return "NEW"
	case TrackActive:
		return "ACTIVE"
	case TrackCoast:
		return "COAST"
	case TrackDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Track is a single tracked object within one class's tracker. ID is
// "trk_<classID>_<seq>", where seq is a per-class monotonically
// increasing counter assigned at birth, starting at 0.
type Track struct {
	ID      string
	ClassID int
	State   TrackState
	Filter  kalman.Filter

	Hits   int // the birth detection plus every successful correction since
	Misses int // consecutive frames without a matching detection
	Age    int // total frames since birth, matched or not

	Box      geometry.BoundingBox2D
	Box3D    geometry.BoundingBox3D
	HasBox3D bool
}

// pixelCenter reads the track's current (x, y, w, h) out of its filter
// state using the variant's own layout, so the tracker never hard-codes
// per-variant indices outside kalman.StateLayout.
func pixelCenter(t *Track) (x, y, w, h float32) {
	_, posIdx, _, dimIdx, _ := kalman.StateLayout(t.Filter.Variant())
	state := t.Filter.State()
	if len(posIdx) >= 2 {
		x = state[posIdx[0]]
		y = state[posIdx[1]]
	}
	if len(dimIdx) >= 2 {
		w = state[dimIdx[0]]
		h = state[dimIdx[len(dimIdx)-1]]
	}
	return x, y, w, h
}

// snapshot copies a Track's externally-visible fields so callers outside
// the tracker's mutex can read it without racing a concurrent Update.
func snapshot(t *Track) *Track {
	cp := *t
	return &cp
}
