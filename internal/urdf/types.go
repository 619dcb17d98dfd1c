package urdf

import "rerun-loader-urdf/internal/mathutil"

// JointType enumerates the URDF joint types.
type JointType string

const (
	JointFixed      JointType = "fixed"
	JointRevolute   JointType = "revolute"
	JointContinuous JointType = "continuous"
	JointPrismatic  JointType = "prismatic"
	JointFloating   JointType = "floating"
	JointPlanar     JointType = "planar"
)

// Pose is a URDF origin: translation plus fixed-axis roll/pitch/yaw radians.
type Pose struct {
	XYZ mathutil.Vec3
	RPY mathutil.Vec3
}

// Matrix returns the pose as a rigid transform.
func (p Pose) Matrix() mathutil.Mat4 {
	rot := mathutil.RPYToMat3(p.RPY[0], p.RPY[1], p.RPY[2])
	return mathutil.FromMat3Translation(rot, p.XYZ)
}

// Geometry is a closed union over the URDF geometry kinds: Mesh, Box,
// Cylinder or Sphere.
type Geometry interface {
	isGeometry()
}

// Mesh references an external mesh file, possibly via a package:// URI.
type Mesh struct {
	Filename string
	Scale    mathutil.Vec3
}

// Box is an axis-aligned box with full extents in meters.
type Box struct {
	Size mathutil.Vec3
}

// Cylinder is a Z-aligned cylinder centered on its origin.
type Cylinder struct {
	Radius float64
	Length float64
}

// Sphere is a sphere centered on its origin.
type Sphere struct {
	Radius float64
}

func (Mesh) isGeometry()     {}
func (Box) isGeometry()      {}
func (Cylinder) isGeometry() {}
func (Sphere) isGeometry()   {}

// Color is RGBA with components in [0, 1].
type Color [4]float64

// Material is a visual material: a color, a texture reference, or a named
// reference into the robot-level material table.
type Material struct {
	Name    string
	Color   *Color
	Texture string
}

// Visual is one visual element of a link. Geometry is nil when the
// document declared a geometry kind this loader does not know; that is
// not a parse error and degrades to a placeholder downstream.
type Visual struct {
	Name     string
	Origin   Pose
	Geometry Geometry
	Material *Material
}

// Link is a rigid body in the kinematic tree. Immutable after Parse.
type Link struct {
	Name    string
	Visuals []Visual
}

// Joint is a directed edge from a parent link to a child link. Parent and
// Child are indices into Model.Links, validated at parse time.
type Joint struct {
	Name   string
	Type   JointType
	Origin Pose
	Axis   mathutil.Vec3
	Parent int
	Child  int
}

// Model is a parsed URDF document. Parse guarantees that the joints form
// a tree rooted at RootLink: every link except the root has exactly one
// parent joint and every link is reachable from the root.
type Model struct {
	Name      string
	Links     []Link
	Joints    []Joint
	RootLink  int
	Materials map[string]Material

	parentJoint []int   // joint index per link, -1 for the root
	childJoints [][]int // joint indices per link, document order
}

// ParentJoint returns the joint whose child is the given link, or
// (-1, false) for the root link.
func (m *Model) ParentJoint(link int) (int, bool) {
	j := m.parentJoint[link]
	return j, j >= 0
}

// ChildJoints returns the joints whose parent is the given link, in
// document order.
func (m *Model) ChildJoints(link int) []int {
	return m.childJoints[link]
}
