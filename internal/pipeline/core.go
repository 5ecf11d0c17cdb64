package pipeline

import (
	"fmt"
	"time"

	"github.com/brightline-vision/trackcore/internal/assoc"
	"github.com/brightline-vision/trackcore/internal/config"
	"github.com/brightline-vision/trackcore/internal/detection"
	"github.com/brightline-vision/trackcore/internal/geometry"
	"github.com/brightline-vision/trackcore/internal/kalman"
	"github.com/brightline-vision/trackcore/internal/localization"
	"github.com/brightline-vision/trackcore/internal/telemetry"
	"github.com/brightline-vision/trackcore/internal/tracking"
)

// TrackedObject is one class's tracked object as reported out of the
// pipeline for one frame: its track bookkeeping, the 2D box the tracker
// is following, its human-readable class name, and (when a depth frame
// was supplied) a 3D position.
type TrackedObject struct {
	TrackID   string
	ClassID   int
	ClassName string
	State     tracking.TrackState
	Box       geometry.BoundingBox2D
	Position  *localization.Position3D
}

// Output is everything one Tick call produces.
type Output struct {
	Timestamp time.Time
	Objects   []TrackedObject
}

// Core owns one tracker per class plus the shared pose estimator, and
// exposes the single Tick entry point that runs a full frame: detect →
// letterbox-invert → per-class predict/associate/update/coast/birth/death
// → (optional) depth projection.
type Core struct {
	detector   detection.Detector
	letterbox  geometry.LetterboxParams
	classNames []string
	trackers   []*tracking.TrackerPerClass
	pose       *localization.PoseEstimator
	telemetry  telemetry.Sink
	lastTick   time.Time
}

// Option configures a Core at construction time.
type Option func(*Core)

// WithTelemetry attaches a non-default telemetry sink.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(c *Core) { c.telemetry = sink }
}

// WithLetterbox attaches the letterbox parameters used to invert
// detector output back into source-frame coordinates.
func WithLetterbox(l geometry.LetterboxParams) Option {
	return func(c *Core) { c.letterbox = l }
}

// NewCore builds a Core from tuning configuration: one TrackerPerClass
// per entry in cfg.GetClassMap, all sharing the same Kalman variant and
// noise model, plus a PoseEstimator seeded from the same config.
func NewCore(detector detection.Detector, variant kalman.Variant, cfg *config.TuningConfig, opts ...Option) *Core {
	classNames := cfg.GetClassMap()
	trackers := make([]*tracking.TrackerPerClass, len(classNames))

	trackerCfg := tracking.TrackerConfig{
		Variant: variant,
		KalmanConfig: kalman.Config{
			UseDim:               cfg.GetUseDim(),
			UseVel:               cfg.GetUseVel(),
			ProcessNoiseDiag:     float32Slice(cfg.GetProcessNoise()),
			MeasurementNoiseDiag: float32Slice(cfg.GetMeasurementNoise()),
		},
		CostParams:      costParamsFrom(cfg),
		MaxFramesToSkip: cfg.GetMaxFramesToSkip(),
		HitsToConfirm:   1,
		MinBBoxWidth:    float32(cfg.GetMinBBoxWidth()),
		MinBBoxHeight:   float32(cfg.GetMinBBoxHeight()),
		MaxBBoxWidth:    float32(cfg.GetMaxBBoxWidth()),
		MaxBBoxHeight:   float32(cfg.GetMaxBBoxHeight()),
	}
	for i := range trackers {
		trackers[i] = tracking.NewTrackerPerClass(i, trackerCfg)
	}

	pose := localization.NewPoseEstimator(localization.Config{
		RejectionThreshold: cfg.GetRejectionThreshold(),
		MinRange:           cfg.GetMinRange(),
		MaxRange:           cfg.GetMaxRange(),
	})
	pose.UpdateCameraParameters(localization.Intrinsics{
		FX: cfg.GetFocalLengthX(),
		FY: cfg.GetFocalLengthY(),
		CX: cfg.GetPrincipalPointX(),
		CY: cfg.GetPrincipalPointY(),
	})

	c := &Core{
		detector:   detector,
		classNames: classNames,
		trackers:   trackers,
		pose:       pose,
		telemetry:  telemetry.NoopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func costParamsFrom(cfg *config.TuningConfig) assoc.CostParams {
	return assoc.CostParams{
		DistThreshold:   float32(cfg.GetDistThreshold()),
		CenterThreshold: float32(cfg.GetCenterThreshold()),
		AreaThreshold:   float32(cfg.GetAreaThreshold()),
		BodyRatio:       float32(cfg.GetBodyRatio()),
	}
}

func float32Slice(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// Tick runs one frame: detect, invert the letterbox, update every
// class's tracker, and (if depthFrame is non-nil) project each resulting
// track into 3D.
func (c *Core) Tick(frame detection.Frame, depthFrame localization.DepthFrame, timestamp time.Time) (Output, error) {
	byClass, err := c.detector.Detect(frame)
	if err != nil {
		return Output{}, fmt.Errorf("pipeline: detect: %w", err)
	}
	if c.letterbox.Scale > 0 {
		byClass = c.letterbox.InvertBoxes(byClass)
	}

	dt := float32(0.02)
	if !c.lastTick.IsZero() {
		dt = float32(timestamp.Sub(c.lastTick).Seconds())
	}
	c.lastTick = timestamp

	out := Output{Timestamp: timestamp}
	for classID, tracker := range c.trackers {
		var detections []geometry.BoundingBox2D
		if classID < len(byClass) {
			detections = byClass[classID]
		}

		tracks, err := tracker.Update(detections, dt)
		if err != nil {
			return Output{}, fmt.Errorf("pipeline: class %d update: %w", classID, err)
		}

		for _, t := range tracks {
			obj := TrackedObject{
				TrackID:   t.ID,
				ClassID:   classID,
				ClassName: c.className(classID),
				State:     t.State,
				Box:       t.Box,
			}
			if depthFrame != nil && c.pose.HasIntrinsics() {
				if pos, err := c.pose.Project(t.Box, depthFrame); err == nil {
					obj.Position = &pos
				}
			}
			if c.telemetry.IsEnabled() {
				c.telemetry.RecordPrediction(t.ID, classID, t.Box.CenterX, t.Box.CenterY, t.Box.Width, t.Box.Height)
			}
			out.Objects = append(out.Objects, obj)
		}
	}
	return out, nil
}

func (c *Core) className(classID int) string {
	if classID < 0 || classID >= len(c.classNames) {
		return fmt.Sprintf("class_%d", classID)
	}
	return c.classNames[classID]
}
