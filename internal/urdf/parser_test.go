package urdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rerun-loader-urdf/internal/mathutil"
)

const armURDF = `<?xml version="1.0"?>
<robot name="arm">
  <material name="steel">
    <color rgba="0.6 0.6 0.7 1"/>
  </material>
  <link name="base">
    <visual>
      <origin xyz="0 0 0.05"/>
      <geometry>
        <box size="0.2 0.2 0.1"/>
      </geometry>
      <material name="steel"/>
    </visual>
  </link>
  <link name="upper">
    <visual>
      <geometry>
        <mesh filename="package://arm_description/meshes/upper.dae" scale="0.001 0.001 0.001"/>
      </geometry>
    </visual>
    <collision>
      <geometry>
        <box size="1 1 1"/>
      </geometry>
    </collision>
  </link>
  <link name="tip">
    <visual>
      <geometry>
        <sphere radius="0.03"/>
      </geometry>
      <material name="glow">
        <color rgba="1 0 0 1"/>
      </material>
    </visual>
  </link>
  <joint name="shoulder" type="revolute">
    <origin xyz="0 0 0.1" rpy="0 0 1.5707963"/>
    <parent link="base"/>
    <child link="upper"/>
    <axis xyz="0 0 1"/>
  </joint>
  <joint name="wrist" type="fixed">
    <origin xyz="0.5 0 0"/>
    <parent link="upper"/>
    <child link="tip"/>
  </joint>
</robot>`

func TestParseBytes_WellFormed(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(armURDF))
	require.NoError(t, err)

	assert.Equal(t, "arm", m.Name)
	require.Len(t, m.Links, 3)
	require.Len(t, m.Joints, 2)
	assert.Equal(t, "base", m.Links[m.RootLink].Name)

	// Joints reference links by validated index.
	shoulder := m.Joints[0]
	assert.Equal(t, JointRevolute, shoulder.Type)
	assert.Equal(t, "base", m.Links[shoulder.Parent].Name)
	assert.Equal(t, "upper", m.Links[shoulder.Child].Name)
	assert.Equal(t, mathutil.Vec3{0, 0, 1}, shoulder.Axis)

	wrist := m.Joints[1]
	assert.Equal(t, JointFixed, wrist.Type)
	assert.Equal(t, mathutil.Vec3{0.5, 0, 0}, wrist.Origin.XYZ)
	// Default axis when the element is absent.
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, wrist.Axis)

	// Parent/child tables mirror the joint list in document order.
	pj, ok := m.ParentJoint(shoulder.Child)
	require.True(t, ok)
	assert.Equal(t, 0, pj)
	_, ok = m.ParentJoint(m.RootLink)
	assert.False(t, ok)
	assert.Equal(t, []int{0}, m.ChildJoints(m.RootLink))
	assert.Empty(t, m.ChildJoints(wrist.Child))
}

func TestParseBytes_Geometry(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(armURDF))
	require.NoError(t, err)

	base := m.Links[0]
	require.Len(t, base.Visuals, 1)
	box, ok := base.Visuals[0].Geometry.(Box)
	require.True(t, ok)
	assert.Equal(t, mathutil.Vec3{0.2, 0.2, 0.1}, box.Size)
	assert.Equal(t, mathutil.Vec3{0, 0, 0.05}, base.Visuals[0].Origin.XYZ)

	mesh, ok := m.Links[1].Visuals[0].Geometry.(Mesh)
	require.True(t, ok)
	assert.Equal(t, "package://arm_description/meshes/upper.dae", mesh.Filename)
	assert.Equal(t, mathutil.Vec3{0.001, 0.001, 0.001}, mesh.Scale)

	sphere, ok := m.Links[2].Visuals[0].Geometry.(Sphere)
	require.True(t, ok)
	assert.Equal(t, 0.03, sphere.Radius)
}

func TestParseBytes_Materials(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(armURDF))
	require.NoError(t, err)

	// Bare material name resolves against the robot-level table.
	mat := m.Links[0].Visuals[0].Material
	require.NotNil(t, mat)
	require.NotNil(t, mat.Color)
	assert.Equal(t, Color{0.6, 0.6, 0.7, 1}, *mat.Color)

	// Inline material wins without a lookup.
	inline := m.Links[2].Visuals[0].Material
	require.NotNil(t, inline)
	require.NotNil(t, inline.Color)
	assert.Equal(t, Color{1, 0, 0, 1}, *inline.Color)
}

func TestParseBytes_DefaultMeshScale(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(`<robot name="r">
	  <link name="a">
	    <visual><geometry><mesh filename="m.stl"/></geometry></visual>
	  </link>
	</robot>`))
	require.NoError(t, err)

	mesh := m.Links[0].Visuals[0].Geometry.(Mesh)
	assert.Equal(t, mathutil.Vec3One(), mesh.Scale)
}

func TestParseBytes_UnknownGeometryIsNotFatal(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(`<robot name="r">
	  <link name="a">
	    <visual><geometry><capsule radius="0.1" length="1"/></geometry></visual>
	  </link>
	</robot>`))
	require.NoError(t, err)
	require.Len(t, m.Links[0].Visuals, 1)
	assert.Nil(t, m.Links[0].Visuals[0].Geometry)
}

func TestParseBytes_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"broken xml", `<robot name="r"><link name="a">`},
		{"wrong root element", `<scene><link name="a"/></scene>`},
		{"no links", `<robot name="r"></robot>`},
		{"duplicate link", `<robot name="r"><link name="a"/><link name="a"/></robot>`},
		{"unknown joint type", `<robot name="r"><link name="a"/><link name="b"/>
			<joint name="j" type="magnetic"><parent link="a"/><child link="b"/></joint></robot>`},
		{"dangling child link", `<robot name="r"><link name="a"/><link name="b"/>
			<joint name="j" type="fixed"><parent link="a"/><child link="c"/></joint></robot>`},
		{"dangling parent link", `<robot name="r"><link name="a"/><link name="b"/>
			<joint name="j" type="fixed"><parent link="c"/><child link="b"/></joint></robot>`},
		{"self loop", `<robot name="r"><link name="a"/>
			<joint name="j" type="fixed"><parent link="a"/><child link="a"/></joint></robot>`},
		{"two roots", `<robot name="r"><link name="a"/><link name="b"/><link name="c"/>
			<joint name="j" type="fixed"><parent link="a"/><child link="b"/></joint></robot>`},
		{"two parents for one link", `<robot name="r"><link name="a"/><link name="b"/><link name="c"/>
			<joint name="j1" type="fixed"><parent link="a"/><child link="c"/></joint>
			<joint name="j2" type="fixed"><parent link="b"/><child link="c"/></joint></robot>`},
		{"cycle", `<robot name="r"><link name="a"/><link name="b"/><link name="c"/>
			<joint name="j1" type="fixed"><parent link="a"/><child link="b"/></joint>
			<joint name="j2" type="fixed"><parent link="b"/><child link="c"/></joint>
			<joint name="j3" type="fixed"><parent link="c"/><child link="a"/></joint></robot>`},
		{"disconnected cycle", `<robot name="r"><link name="root"/><link name="a"/><link name="b"/>
			<joint name="j1" type="fixed"><parent link="a"/><child link="b"/></joint>
			<joint name="j2" type="fixed"><parent link="b"/><child link="a"/></joint></robot>`},
		{"bad origin numbers", `<robot name="r"><link name="a"/><link name="b"/>
			<joint name="j" type="fixed"><origin xyz="1 2 x"/><parent link="a"/><child link="b"/></joint></robot>`},
		{"bad color width", `<robot name="r">
			<material name="m"><color rgba="1 0 0"/></material><link name="a"/></robot>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, m)
			var mde *MalformedDocumentError
			assert.True(t, errors.As(err, &mde), "want MalformedDocumentError, got %T: %v", err, err)
		})
	}
}
