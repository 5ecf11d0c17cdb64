// Package tracking owns per-class multi-object tracking: track lifecycle
// (birth, confirmation, coasting, death), Kalman-filter-backed motion
// estimation, and Hungarian-assignment-based association against a
// frame's detections.
//
// Responsibilities: TrackerPerClass.Update runs predict → cost/gate →
// Hungarian → update/coast/birth/death exactly once per frame per class.
// Key types: Track, TrackState, TrackerConfig, TrackerPerClass.
//
// Dependency rule: tracking may depend on kalman, assoc, and geometry,
// but never on localization or pipeline.
package tracking
