package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/brightline-vision/trackcore/internal/config"
	"github.com/brightline-vision/trackcore/internal/detection"
	"github.com/brightline-vision/trackcore/internal/geometry"
	"github.com/brightline-vision/trackcore/internal/kalman"
	"github.com/brightline-vision/trackcore/internal/localization"
)

// fakeDetector returns one fixed set of per-class boxes regardless of the
// frame passed in, optionally advancing across calls.
type fakeDetector struct {
	frames [][][]geometry.BoundingBox2D
	call   int
}

func (f *fakeDetector) Detect(detection.Frame) ([][]geometry.BoundingBox2D, error) {
	if f.call >= len(f.frames) {
		return f.frames[len(f.frames)-1], nil
	}
	out := f.frames[f.call]
	f.call++
	return out, nil
}

type erroringDetector struct{}

func (erroringDetector) Detect(detection.Frame) ([][]geometry.BoundingBox2D, error) {
	return nil, errors.New("boom")
}

// flatDepthFrame reports the same range everywhere.
type flatDepthFrame struct {
	rows, cols int
	value      float32
}

func (f flatDepthFrame) At(row, col int) (float32, bool) {
	if row < 0 || row >= f.rows || col < 0 || col >= f.cols {
		return 0, false
	}
	return f.value, true
}
func (f flatDepthFrame) Rows() int { return f.rows }
func (f flatDepthFrame) Cols() int { return f.cols }

func twoClassCfg() *config.TuningConfig {
	cfg := config.EmptyTuningConfig()
	classes := []string{"person", "vehicle"}
	cfg.ClassMap = &classes
	return cfg
}

func box(cx, cy, w, h float32) geometry.BoundingBox2D {
	return geometry.NewBoundingBox2D(cx, cy, w, h, 0.9, 0)
}

func TestCore_TickBirthsTracksFromDetections(t *testing.T) {
	det := &fakeDetector{frames: [][][]geometry.BoundingBox2D{
		{
			{box(100, 100, 60, 80)},
			{box(300, 200, 60, 60)},
		},
	}}
	core := NewCore(det, kalman.Linear2D, twoClassCfg())

	out, err := core.Tick(nil, nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(out.Objects) != 2 {
		t.Fatalf("expected 2 tracked objects, got %d", len(out.Objects))
	}

	names := map[string]bool{}
	for _, obj := range out.Objects {
		names[obj.ClassName] = true
		if obj.Position != nil {
			t.Errorf("expected no depth projection without a depth frame, got %+v", obj.Position)
		}
	}
	if !names["person"] || !names["vehicle"] {
		t.Errorf("expected class names person and vehicle, got %v", names)
	}
}

func TestCore_TickPropagatesDetectorError(t *testing.T) {
	core := NewCore(erroringDetector{}, kalman.Linear2D, twoClassCfg())
	_, err := core.Tick(nil, nil, time.Unix(0, 0))
	if err == nil {
		t.Fatal("expected error from failing detector, got nil")
	}
}

func TestCore_TicksAcrossFramesKeepSameTrackID(t *testing.T) {
	det := &fakeDetector{frames: [][][]geometry.BoundingBox2D{
		{{box(100, 100, 60, 80)}, nil},
		{{box(102, 101, 60, 80)}, nil},
	}}
	core := NewCore(det, kalman.Linear2D, twoClassCfg())

	first, err := core.Tick(nil, nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("first tick: %v", err)
	}
	second, err := core.Tick(nil, nil, time.Unix(1, 0))
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(first.Objects) != 1 || len(second.Objects) != 1 {
		t.Fatalf("expected exactly one object per tick, got %d then %d", len(first.Objects), len(second.Objects))
	}
	if first.Objects[0].TrackID != second.Objects[0].TrackID {
		t.Errorf("expected stable track ID across frames, got %s then %s",
			first.Objects[0].TrackID, second.Objects[0].TrackID)
	}
}

func TestCore_TickProjectsDepthWhenIntrinsicsAndFrameProvided(t *testing.T) {
	det := &fakeDetector{frames: [][][]geometry.BoundingBox2D{
		{{box(320, 240, 60, 80)}, nil},
	}}
	cfg := twoClassCfg()
	core := NewCore(det, kalman.Linear2D, cfg)
	depth := flatDepthFrame{rows: 480, cols: 640, value: 5.0}

	out, err := core.Tick(nil, depth, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(out.Objects) != 1 {
		t.Fatalf("expected 1 tracked object, got %d", len(out.Objects))
	}
	if out.Objects[0].Position == nil {
		t.Fatal("expected a depth projection with a depth frame and default intrinsics")
	}
	if out.Objects[0].Position.Z != 5.0 {
		t.Errorf("expected projected Z of 5.0, got %v", out.Objects[0].Position.Z)
	}
}

func TestCore_ClassNameFallsBackForOutOfRangeClassID(t *testing.T) {
	core := NewCore(&fakeDetector{}, kalman.Linear2D, twoClassCfg())
	if got := core.className(7); got != "class_7" {
		t.Errorf("expected fallback class name, got %q", got)
	}
}

func TestCore_WithLetterboxInvertsDetectorOutput(t *testing.T) {
	det := &fakeDetector{frames: [][][]geometry.BoundingBox2D{
		{{box(200, 200, 200, 200)}, nil},
	}}
	core := NewCore(det, kalman.Linear2D, twoClassCfg(),
		WithLetterbox(geometry.LetterboxParams{Scale: 2, PadCols: 0, PadRows: 0}))

	out, err := core.Tick(nil, nil, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if len(out.Objects) != 1 {
		t.Fatalf("expected 1 tracked object, got %d", len(out.Objects))
	}
	if out.Objects[0].Box.CenterX != 100 {
		t.Errorf("expected letterbox-inverted center x of 100, got %v", out.Objects[0].Box.CenterX)
	}
}

var _ localization.DepthFrame = flatDepthFrame{}
