// Command urdfinspect prints the kinematic tree of a URDF file: links,
// joint types, accumulated world translations and geometry. Useful for
// checking what the loader would emit without a viewer attached.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"rerun-loader-urdf/internal/rospkg"
	"rerun-loader-urdf/internal/scene"
	"rerun-loader-urdf/internal/urdf"
)

func main() {
	resolve := flag.Bool("resolve", false, "resolve package:// references against the ROS environment")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: urdfinspect [-resolve] <file.urdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	model, err := urdf.ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "urdfinspect: %v\n", err)
		os.Exit(1)
	}

	opts := scene.Options{BaseDir: filepath.Dir(path)}
	if *resolve {
		opts.Resolver = rospkg.FromEnv(os.Getenv)
	}
	nodes, warnings := scene.Build(model, opts)

	fmt.Printf("robot %q: %d links, %d joints, root %q\n",
		model.Name, len(model.Links), len(model.Joints), model.Links[model.RootLink].Name)

	depth := make([]int, len(nodes))
	for i, n := range nodes {
		if n.Parent >= 0 {
			depth[i] = depth[n.Parent] + 1
		}
		indent := ""
		for d := 0; d < depth[i]; d++ {
			indent += "  "
		}

		jointDesc := ""
		if ji, ok := model.ParentJoint(n.Link); ok {
			j := model.Joints[ji]
			jointDesc = fmt.Sprintf(" <- %s joint %q", j.Type, j.Name)
		}
		w := n.World.Translation()
		fmt.Printf("%s%s  world (%.3f, %.3f, %.3f)%s\n", indent, n.Name, w[0], w[1], w[2], jointDesc)

		for _, inst := range n.Geometries {
			fmt.Printf("%s  %s: %s\n", indent, filepath.Base(inst.Path), describeGeometry(inst))
		}
	}

	if len(warnings) > 0 {
		fmt.Printf("\n%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  %s: %v\n", w.Path, w.Err)
		}
	}
}

func describeGeometry(inst scene.GeometryInstance) string {
	switch g := inst.Geometry.(type) {
	case urdf.Mesh:
		if inst.MeshPath != "" {
			return fmt.Sprintf("mesh %s", inst.MeshPath)
		}
		return fmt.Sprintf("mesh %s (unresolved)", g.Filename)
	case urdf.Box:
		return fmt.Sprintf("box %.3f x %.3f x %.3f", g.Size[0], g.Size[1], g.Size[2])
	case urdf.Cylinder:
		return fmt.Sprintf("cylinder r=%.3f l=%.3f", g.Radius, g.Length)
	case urdf.Sphere:
		return fmt.Sprintf("sphere r=%.3f", g.Radius)
	default:
		return "(unsupported geometry)"
	}
}
