package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/brightline-vision/trackcore/internal/detection"
	"github.com/brightline-vision/trackcore/internal/geometry"
)

// replayFrame is one line of a recorded-detections file: a flat list of
// already-suppressed, already-classified boxes for a single frame.
type replayFrame struct {
	Objects []replayObject `json:"objects"`
}

type replayObject struct {
	ClassID int     `json:"class_id"`
	CX      float32 `json:"cx"`
	CY      float32 `json:"cy"`
	W       float32 `json:"w"`
	H       float32 `json:"h"`
	Conf    float32 `json:"conf"`
}

// replayDetector implements detection.Detector by stepping through a
// recorded JSONL file one line per Detect call. It stands in for the
// inference engine this core intentionally does not run itself.
type replayDetector struct {
	mu         sync.Mutex
	frames     []replayFrame
	next       int
	numClasses int
}

// loadReplayDetector reads a JSONL detections file (one replayFrame per
// line) and sizes its per-class output to numClasses.
func loadReplayDetector(path string, numClasses int) (*replayDetector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	var frames []replayFrame
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame replayFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, fmt.Errorf("parse replay line %d: %w", len(frames)+1, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan replay file: %w", err)
	}

	return &replayDetector{frames: frames, numClasses: numClasses}, nil
}

// Detect returns the next recorded frame's boxes, grouped by class. Once
// the file is exhausted it loops back to the first frame, so a short
// fixture can still drive a long-running demo.
func (r *replayDetector) Detect(detection.Frame) ([][]geometry.BoundingBox2D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return make([][]geometry.BoundingBox2D, r.numClasses), nil
	}

	frame := r.frames[r.next]
	r.next = (r.next + 1) % len(r.frames)

	byClass := make([][]geometry.BoundingBox2D, r.numClasses)
	for _, obj := range frame.Objects {
		if obj.ClassID < 0 || obj.ClassID >= r.numClasses {
			continue
		}
		box := geometry.NewBoundingBox2D(obj.CX, obj.CY, obj.W, obj.H, obj.Conf, obj.ClassID)
		if !box.Valid {
			continue
		}
		byClass[obj.ClassID] = append(byClass[obj.ClassID], box)
	}
	return byClass, nil
}
