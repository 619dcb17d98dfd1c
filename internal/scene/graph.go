// Package scene flattens a parsed URDF model into labeled scene nodes
// with accumulated rigid transforms, ready for a visualizer sink.
package scene

import (
	"fmt"

	"rerun-loader-urdf/internal/mathutil"
	"rerun-loader-urdf/internal/rospkg"
	"rerun-loader-urdf/internal/urdf"
)

// Node is the output unit: one per link, in depth-first document order.
type Node struct {
	Link   int    // index into the model's link slice
	Name   string // link name
	Path   string // slash-joined link chain from the root, with prefix
	Parent int    // index into the returned node slice, -1 for the root

	// Local is the parent joint's origin transform (identity for the
	// root); World is the transform accumulated along the ancestor chain.
	Local mathutil.Mat4
	World mathutil.Mat4

	Geometries []GeometryInstance
}

// GeometryInstance is one visual element of a node. Geometry is nil for a
// placeholder: the visual referenced something that could not be resolved
// or a kind the loader does not know, and a Warning records why.
type GeometryInstance struct {
	Path        string // node path + "/visual_<i>"
	Origin      mathutil.Mat4
	Geometry    urdf.Geometry
	MeshPath    string // resolved filesystem path for mesh geometry
	Color       *urdf.Color
	TexturePath string // resolved filesystem path, empty when absent
}

// Warning records a non-fatal defect encountered while building the graph.
type Warning struct {
	Path string
	Err  error
}

// UnsupportedGeometryError reports a visual whose geometry kind is not
// representable by the target primitives.
type UnsupportedGeometryError struct {
	Visual string
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("scene: unsupported geometry in visual %q", e.Visual)
}

// Options configures a build. Resolver may be nil, in which case every
// package:// reference degrades to a placeholder.
type Options struct {
	Resolver   rospkg.Resolver
	BaseDir    string // directory of the URDF document, for relative paths
	PathPrefix string // optional prefix for every entity path
}

// Build walks the link tree depth-first from the root, visiting children
// in document order, and returns one node per link plus any warnings.
// A bad mesh or texture reference never fails the build; the affected
// instance is emitted with empty geometry instead. Build keeps no state
// between calls: the same model and options produce identical output.
func Build(m *urdf.Model, opts Options) ([]Node, []Warning) {
	nodes := make([]Node, 0, len(m.Links))
	var warnings []Warning

	type frame struct {
		link   int
		parent int // node index, -1 for root
	}
	stack := []frame{{link: m.RootLink, parent: -1}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		link := m.Links[fr.link]

		node := Node{
			Link:   fr.link,
			Name:   link.Name,
			Parent: fr.parent,
			Local:  mathutil.Mat4Identity(),
			World:  mathutil.Mat4Identity(),
		}
		if fr.parent >= 0 {
			parent := &nodes[fr.parent]
			ji, _ := m.ParentJoint(fr.link)
			node.Local = m.Joints[ji].Origin.Matrix()
			node.World = mathutil.Mat4Mul(parent.World, node.Local)
			node.Path = parent.Path + "/" + link.Name
		} else {
			node.Path = joinPath(opts.PathPrefix, link.Name)
		}

		for vi, visual := range link.Visuals {
			inst, warns := buildGeometry(&visual, fmt.Sprintf("%s/visual_%d", node.Path, vi), opts)
			node.Geometries = append(node.Geometries, inst)
			warnings = append(warnings, warns...)
		}

		ni := len(nodes)
		nodes = append(nodes, node)

		// Push in reverse so children pop in document order.
		children := m.ChildJoints(fr.link)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{link: m.Joints[children[i]].Child, parent: ni})
		}
	}

	return nodes, warnings
}

func buildGeometry(visual *urdf.Visual, path string, opts Options) (GeometryInstance, []Warning) {
	inst := GeometryInstance{
		Path:     path,
		Origin:   visual.Origin.Matrix(),
		Geometry: visual.Geometry,
	}
	var warnings []Warning

	switch g := visual.Geometry.(type) {
	case nil:
		warnings = append(warnings, Warning{Path: path, Err: &UnsupportedGeometryError{Visual: path}})
	case urdf.Mesh:
		resolved, err := rospkg.ResolveFilename(opts.Resolver, g.Filename, opts.BaseDir)
		if err != nil {
			// Partial-success policy: keep the node, drop the geometry.
			inst.Geometry = nil
			warnings = append(warnings, Warning{Path: path, Err: fmt.Errorf("mesh %s: %w", g.Filename, err)})
		} else {
			inst.MeshPath = resolved
		}
	}

	if mat := visual.Material; mat != nil {
		if mat.Color != nil {
			c := *mat.Color
			inst.Color = &c
		}
		if mat.Texture != "" {
			resolved, err := rospkg.ResolveFilename(opts.Resolver, mat.Texture, opts.BaseDir)
			if err != nil {
				warnings = append(warnings, Warning{Path: path, Err: fmt.Errorf("texture %s: %w", mat.Texture, err)})
			} else {
				inst.TexturePath = resolved
			}
		}
	}

	return inst, warnings
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
