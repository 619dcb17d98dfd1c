// Package sink writes scene data to the visualizer's ingestion stream.
package sink

import (
	"rerun-loader-urdf/internal/mathutil"
	"rerun-loader-urdf/internal/urdf"
)

// RightHandZUp is the default ROS view convention.
const RightHandZUp = "RIGHT_HAND_Z_UP"

// Recording is the logging surface the converter emits into. Calls are
// strictly sequential; implementations need no locking.
type Recording interface {
	// SetTimeSeconds and SetTimeSequence set the value of a timeline that
	// is attached to every subsequent non-static record.
	SetTimeSeconds(timeline string, seconds float64)
	SetTimeSequence(timeline string, sequence int64)

	ViewCoordinates(entityPath, convention string) error
	Transform(entityPath string, translation mathutil.Vec3, rotation mathutil.Quat, static bool) error
	Asset(entityPath, assetPath string, scale mathutil.Vec3, static bool) error
	Box(entityPath string, size mathutil.Vec3, color *urdf.Color, static bool) error
	Cylinder(entityPath string, radius, length float64, color *urdf.Color, static bool) error
	Sphere(entityPath string, radius float64, color *urdf.Color, static bool) error
	AlbedoTexture(entityPath string, webp []byte, width, height int) error
	Text(entityPath, text string) error
}
