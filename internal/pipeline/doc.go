// Package pipeline wires the detector, per-class trackers, and pose
// estimator into the single per-frame entry point the original ROS
// node's imageCallback/depthCallback pair played: predict, associate,
// update, and (optionally) project to 3D, once per incoming frame.
package pipeline
