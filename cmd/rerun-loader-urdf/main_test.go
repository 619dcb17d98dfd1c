package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainURDF = `<robot name="chain">
  <link name="base">
    <visual>
      <geometry><box size="0.2 0.2 0.1"/></geometry>
    </visual>
  </link>
  <link name="link1"/>
  <link name="link2"/>
  <joint name="j1" type="fixed">
    <origin xyz="1 0 0"/>
    <parent link="base"/>
    <child link="link1"/>
  </joint>
  <joint name="j2" type="fixed">
    <origin xyz="1 0 0"/>
    <parent link="link1"/>
    <child link="link2"/>
  </joint>
</robot>`

func writeURDF(t *testing.T, name, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRun_IncompatibleInputs(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nope.urdf")
		}},
		{"wrong extension", func(t *testing.T) string {
			return writeURDF(t, "robot.sdf", chainURDF)
		}},
		{"directory", func(t *testing.T) string {
			return t.TempDir()
		}},
		{"malformed document", func(t *testing.T) string {
			return writeURDF(t, "broken.urdf", "<robot name=")
		}},
		{"two roots", func(t *testing.T) string {
			return writeURDF(t, "forest.urdf", `<robot name="f"><link name="a"/><link name="b"/></robot>`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code, err := run(args{filepath: tt.path(t)}, &buf)
			require.NoError(t, err)
			assert.Equal(t, exitIncompatible, code)
			// The "try another loader" contract: no output at all.
			assert.Zero(t, buf.Len())
		})
	}
}

func TestRun_EndToEnd(t *testing.T) {
	path := writeURDF(t, "chain.urdf", chainURDF)

	var buf bytes.Buffer
	code, err := run(args{filepath: path, recordingID: "rec-9"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	lines := decodeLines(t, &buf)
	require.GreaterOrEqual(t, len(lines), 5)

	// Header first: application id defaults to the file path.
	assert.Equal(t, path, lines[0]["application_id"])
	assert.Equal(t, "rec-9", lines[0]["recording_id"])

	assert.Equal(t, "ViewCoordinates", lines[1]["archetype"])

	// Entity paths are prefixed with the file's base name by default.
	var paths []string
	var archetypes []string
	for _, l := range lines[1:] {
		paths = append(paths, l["entity_path"].(string))
		archetypes = append(archetypes, l["archetype"].(string))
	}
	assert.Contains(t, paths, "chain.urdf/base/visual_0")
	assert.Contains(t, paths, "chain.urdf/base/link1")
	assert.Contains(t, paths, "chain.urdf/base/link1/link2")
	assert.Contains(t, archetypes, "Transform3D")
	assert.Contains(t, archetypes, "Boxes3D")
}

func TestRun_EntityPathPrefixFlag(t *testing.T) {
	path := writeURDF(t, "chain.urdf", chainURDF)

	var buf bytes.Buffer
	code, err := run(args{filepath: path, entityPathPrefix: "world/robot"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	var found bool
	for _, l := range decodeLines(t, &buf) {
		if l["entity_path"] == "world/robot/base/link1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRun_Timelines(t *testing.T) {
	path := writeURDF(t, "chain.urdf", chainURDF)

	var buf bytes.Buffer
	code, err := run(args{
		filepath:  path,
		times:     []string{"sim_time=2.5", "garbage", "also=bad"},
		sequences: []string{"sim_frame=7"},
	}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	lines := decodeLines(t, &buf)
	// Transforms are non-static by default and carry the timelines.
	var checked bool
	for _, l := range lines {
		if l["archetype"] != "Transform3D" {
			continue
		}
		times := l["times"].([]any)
		require.Len(t, times, 2)
		assert.Equal(t, 2.5, times[0].(map[string]any)["seconds"])
		assert.Equal(t, 7.0, times[1].(map[string]any)["sequence"])
		checked = true
	}
	assert.True(t, checked)
}

func TestRun_StaticSkipsTimelines(t *testing.T) {
	path := writeURDF(t, "chain.urdf", chainURDF)

	var buf bytes.Buffer
	code, err := run(args{filepath: path, static: true, times: []string{"sim_time=1"}}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	for _, l := range decodeLines(t, &buf) {
		assert.NotContains(t, l, "times")
	}
}

func TestRun_UnresolvedMeshStillSucceeds(t *testing.T) {
	path := writeURDF(t, "robot.urdf", `<robot name="r">
	  <link name="base">
	    <visual>
	      <geometry><mesh filename="package://no_such_pkg/meshes/arm.dae"/></geometry>
	    </visual>
	  </link>
	</robot>`)

	var buf bytes.Buffer
	code, err := run(args{filepath: path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	// The degraded visual surfaces as a TextLog record, not a failure.
	var sawText bool
	for _, l := range decodeLines(t, &buf) {
		if l["archetype"] == "TextLog" {
			sawText = true
		}
		assert.NotEqual(t, "Asset3D", l["archetype"])
	}
	assert.True(t, sawText)
}

func TestRun_ResolvesMeshFromPackagePath(t *testing.T) {
	root := t.TempDir()
	pkg := filepath.Join(root, "arm_description")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "meshes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.xml"), []byte("<package/>"), 0o644))
	t.Setenv("ROS_PACKAGE_PATH", root)
	t.Setenv("AMENT_PREFIX_PATH", "")

	path := writeURDF(t, "robot.urdf", `<robot name="r">
	  <link name="base">
	    <visual>
	      <geometry><mesh filename="package://arm_description/meshes/arm.dae"/></geometry>
	    </visual>
	  </link>
	</robot>`)

	var buf bytes.Buffer
	code, err := run(args{filepath: path}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	var assetPath string
	for _, l := range decodeLines(t, &buf) {
		if l["archetype"] == "Asset3D" {
			assetPath = l["asset_path"].(string)
		}
	}
	assert.Equal(t, filepath.Join(pkg, "meshes", "arm.dae"), assetPath)
}

func TestParseArgs(t *testing.T) {
	a, err := parseArgs([]string{
		"--recording-id", "rec",
		"--application-id", "app",
		"--entity-path-prefix", "p",
		"--static",
		"--time", "a=1", "--time", "b=2",
		"--sequence", "f=3",
		"robot.urdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "robot.urdf", a.filepath)
	assert.Equal(t, "rec", a.recordingID)
	assert.Equal(t, "app", a.applicationID)
	assert.Equal(t, "p", a.entityPathPrefix)
	assert.True(t, a.static)
	assert.Equal(t, []string{"a=1", "b=2"}, a.times)
	assert.Equal(t, []string{"f=3"}, a.sequences)

	_, err = parseArgs(nil)
	assert.Error(t, err)
	_, err = parseArgs([]string{"a.urdf", "b.urdf"})
	assert.Error(t, err)
}

func TestIsLoadableFile(t *testing.T) {
	urdf := writeURDF(t, "a.urdf", chainURDF)
	assert.True(t, isLoadableFile(urdf))

	xacro := writeURDF(t, "a.xacro", chainURDF)
	assert.True(t, isLoadableFile(xacro))

	upper := writeURDF(t, "a.URDF", chainURDF)
	assert.True(t, isLoadableFile(upper))

	other := writeURDF(t, "a.txt", "hello")
	assert.False(t, isLoadableFile(other))
	assert.False(t, isLoadableFile(t.TempDir()))
}
