// Package telemetry is the optional debug/profiling sink for
// frame-by-frame internals. A Sink accepts predictions, gating regions,
// associations, and innovations; pipeline.Core records only predictions
// and never calls the other three. A disabled Sink costs one check per
// event; this realizes spec §9's "profiling becomes an optional sink interface
// implemented by the host" rather than a hardwired visualiser.
package telemetry

// Sink receives per-frame tracking internals. Every call is a no-op
// unless IsEnabled reports true, mirroring the teacher's
// DebugCollector.IsEnabled gate so hosts that don't care about telemetry
// pay only the cost of one interface check per event.
type Sink interface {
	IsEnabled() bool
	RecordPrediction(trackID string, classID int, x, y, w, h float32)
	RecordAssociation(detectionIndex int, trackID string, cost float32, accepted bool)
	RecordGatingRegion(trackID string, centerX, centerY, radius float32)
	RecordInnovation(trackID string, predX, predY, measX, measY, residual float32)
}

// NoopSink implements Sink with every method doing nothing; it is the
// default when a host wires no telemetry in.
type NoopSink struct{}

func (NoopSink) IsEnabled() bool { return false }
func (NoopSink) RecordPrediction(trackID string, classID int, x, y, w, h float32) {}
func (NoopSink) RecordAssociation(detectionIndex int, trackID string, cost float32, accepted bool) {
}
func (NoopSink) RecordGatingRegion(trackID string, centerX, centerY, radius float32) {}
func (NoopSink) RecordInnovation(trackID string, predX, predY, measX, measY, residual float32) {}
