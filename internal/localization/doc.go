// Package localization turns a 2D detection plus a depth frame into a 3D
// camera-frame position via pinhole back-projection.
//
// Responsibilities: robust depth sampling inside a detection's box, the
// pinhole projection itself, and the intrinsics the projection needs.
// Key types: Intrinsics, DepthFrame, PoseEstimator.
//
// Dependency rule: localization depends only on geometry; it knows
// nothing about tracking or the Kalman filters.
package localization
