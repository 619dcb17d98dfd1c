package urdf

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"rerun-loader-urdf/internal/mathutil"
)

// xmlRobot matches the URDF schema. Collision elements are deliberately
// absent: they are skipped during unmarshal and never reach the model.
type xmlRobot struct {
	XMLName   xml.Name      `xml:"robot"`
	Name      string        `xml:"name,attr"`
	Materials []xmlMaterial `xml:"material"`
	Links     []xmlLink     `xml:"link"`
	Joints    []xmlJoint    `xml:"joint"`
}

type xmlMaterial struct {
	Name    string      `xml:"name,attr"`
	Color   *xmlColor   `xml:"color"`
	Texture *xmlTexture `xml:"texture"`
}

type xmlColor struct {
	RGBA string `xml:"rgba,attr"`
}

type xmlTexture struct {
	Filename string `xml:"filename,attr"`
}

type xmlOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type xmlLink struct {
	Name    string      `xml:"name,attr"`
	Visuals []xmlVisual `xml:"visual"`
}

type xmlVisual struct {
	Name     string       `xml:"name,attr"`
	Origin   *xmlOrigin   `xml:"origin"`
	Geometry *xmlGeometry `xml:"geometry"`
	Material *xmlMaterial `xml:"material"`
}

type xmlGeometry struct {
	Mesh     *xmlMesh     `xml:"mesh"`
	Box      *xmlBox      `xml:"box"`
	Cylinder *xmlCylinder `xml:"cylinder"`
	Sphere   *xmlSphere   `xml:"sphere"`
}

type xmlMesh struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr"`
}

type xmlBox struct {
	Size string `xml:"size,attr"`
}

type xmlCylinder struct {
	Radius string `xml:"radius,attr"`
	Length string `xml:"length,attr"`
}

type xmlSphere struct {
	Radius string `xml:"radius,attr"`
}

type xmlJoint struct {
	Name   string        `xml:"name,attr"`
	Type   string        `xml:"type,attr"`
	Origin *xmlOrigin    `xml:"origin"`
	Parent *xmlJointLink `xml:"parent"`
	Child  *xmlJointLink `xml:"child"`
	Axis   *xmlAxis      `xml:"axis"`
}

type xmlJointLink struct {
	Link string `xml:"link,attr"`
}

type xmlAxis struct {
	XYZ string `xml:"xyz,attr"`
}

// ParseFile reads and parses a URDF file.
func ParseFile(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("urdf: read %s: %w", path, err)
	}
	return ParseBytes(raw)
}

// Parse reads a URDF document from r.
func Parse(r io.Reader) (*Model, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("urdf: read document: %w", err)
	}
	return ParseBytes(raw)
}

// ParseBytes parses a URDF document and validates its joint graph. Any
// structural problem returns a *MalformedDocumentError and no model.
func ParseBytes(raw []byte) (*Model, error) {
	var x xmlRobot
	if err := xml.Unmarshal(raw, &x); err != nil {
		return nil, &MalformedDocumentError{Reason: "invalid XML", Err: err}
	}
	return buildModel(&x)
}

func buildModel(x *xmlRobot) (*Model, error) {
	if len(x.Links) == 0 {
		return nil, malformed("document has no links")
	}

	materials := make(map[string]Material, len(x.Materials))
	for _, xm := range x.Materials {
		mat, err := parseMaterial(&xm)
		if err != nil {
			return nil, err
		}
		materials[mat.Name] = mat
	}

	linkIndex := make(map[string]int, len(x.Links))
	links := make([]Link, 0, len(x.Links))
	for i, xl := range x.Links {
		if xl.Name == "" {
			return nil, malformed("link %d has no name", i)
		}
		if _, dup := linkIndex[xl.Name]; dup {
			return nil, malformed("duplicate link name %q", xl.Name)
		}
		link := Link{Name: xl.Name}
		for vi, xv := range xl.Visuals {
			v, err := parseVisual(&xv, materials)
			if err != nil {
				return nil, fmt.Errorf("link %q visual %d: %w", xl.Name, vi, err)
			}
			link.Visuals = append(link.Visuals, v)
		}
		linkIndex[xl.Name] = i
		links = append(links, link)
	}

	parentJoint := make([]int, len(links))
	childJoints := make([][]int, len(links))
	for i := range parentJoint {
		parentJoint[i] = -1
	}

	jointNames := make(map[string]bool, len(x.Joints))
	joints := make([]Joint, 0, len(x.Joints))
	for _, xj := range x.Joints {
		j, err := parseJoint(&xj, linkIndex)
		if err != nil {
			return nil, err
		}
		if jointNames[j.Name] {
			return nil, malformed("duplicate joint name %q", j.Name)
		}
		jointNames[j.Name] = true

		if parentJoint[j.Child] >= 0 {
			return nil, malformed("link %q has more than one parent joint", links[j.Child].Name)
		}
		ji := len(joints)
		parentJoint[j.Child] = ji
		childJoints[j.Parent] = append(childJoints[j.Parent], ji)
		joints = append(joints, j)
	}

	root := -1
	for i, pj := range parentJoint {
		if pj >= 0 {
			continue
		}
		if root >= 0 {
			return nil, malformed("multiple root links: %q and %q", links[root].Name, links[i].Name)
		}
		root = i
	}
	if root < 0 {
		// Every link has a parent, so the joint graph contains a cycle.
		return nil, malformed("joint graph has a cycle and no root link")
	}

	// Every link must be reachable from the root; anything unreachable
	// means a disconnected component, which in a single-parent graph also
	// covers cycles.
	seen := make([]bool, len(links))
	stack := []int{root}
	reached := 0
	for len(stack) > 0 {
		li := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[li] {
			continue
		}
		seen[li] = true
		reached++
		for _, ji := range childJoints[li] {
			stack = append(stack, joints[ji].Child)
		}
	}
	if reached != len(links) {
		return nil, malformed("joint graph is not a single tree: %d of %d links reachable from root %q",
			reached, len(links), links[root].Name)
	}

	return &Model{
		Name:        x.Name,
		Links:       links,
		Joints:      joints,
		RootLink:    root,
		Materials:   materials,
		parentJoint: parentJoint,
		childJoints: childJoints,
	}, nil
}

func parseJoint(xj *xmlJoint, linkIndex map[string]int) (Joint, error) {
	if xj.Name == "" {
		return Joint{}, malformed("joint has no name")
	}
	jt := JointType(xj.Type)
	switch jt {
	case JointFixed, JointRevolute, JointContinuous, JointPrismatic, JointFloating, JointPlanar:
	default:
		return Joint{}, malformed("joint %q has unknown type %q", xj.Name, xj.Type)
	}
	if xj.Parent == nil || xj.Child == nil {
		return Joint{}, malformed("joint %q is missing parent or child", xj.Name)
	}
	parent, ok := linkIndex[xj.Parent.Link]
	if !ok {
		return Joint{}, malformed("joint %q references unknown parent link %q", xj.Name, xj.Parent.Link)
	}
	child, ok := linkIndex[xj.Child.Link]
	if !ok {
		return Joint{}, malformed("joint %q references unknown child link %q", xj.Name, xj.Child.Link)
	}
	if parent == child {
		return Joint{}, malformed("joint %q connects link %q to itself", xj.Name, xj.Parent.Link)
	}

	origin, err := parseOrigin(xj.Origin)
	if err != nil {
		return Joint{}, malformed("joint %q: %v", xj.Name, err)
	}

	axis := mathutil.Vec3{1, 0, 0} // URDF default
	if xj.Axis != nil && xj.Axis.XYZ != "" {
		axis, err = parseVec3(xj.Axis.XYZ)
		if err != nil {
			return Joint{}, malformed("joint %q axis: %v", xj.Name, err)
		}
	}

	return Joint{
		Name:   xj.Name,
		Type:   jt,
		Origin: origin,
		Axis:   axis,
		Parent: parent,
		Child:  child,
	}, nil
}

func parseVisual(xv *xmlVisual, materials map[string]Material) (Visual, error) {
	origin, err := parseOrigin(xv.Origin)
	if err != nil {
		return Visual{}, malformed("origin: %v", err)
	}

	v := Visual{Name: xv.Name, Origin: origin}

	if xv.Geometry != nil {
		v.Geometry, err = parseGeometry(xv.Geometry)
		if err != nil {
			return Visual{}, err
		}
	}

	if xv.Material != nil {
		mat, err := parseMaterial(xv.Material)
		if err != nil {
			return Visual{}, err
		}
		if mat.Color == nil && mat.Texture == "" {
			// Bare name: reference into the robot-level material table.
			// A dangling name degrades to no material, it is not fatal.
			if global, ok := materials[mat.Name]; ok {
				mat = global
			}
		}
		v.Material = &mat
	}

	return v, nil
}

// parseGeometry returns nil (not an error) when the element holds none of
// the four known kinds, so one exotic geometry cannot fail the document.
func parseGeometry(xg *xmlGeometry) (Geometry, error) {
	switch {
	case xg.Mesh != nil:
		scale := mathutil.Vec3One()
		if xg.Mesh.Scale != "" {
			var err error
			scale, err = parseVec3(xg.Mesh.Scale)
			if err != nil {
				return nil, malformed("mesh scale: %v", err)
			}
		}
		return Mesh{Filename: xg.Mesh.Filename, Scale: scale}, nil
	case xg.Box != nil:
		size, err := parseVec3(xg.Box.Size)
		if err != nil {
			return nil, malformed("box size: %v", err)
		}
		return Box{Size: size}, nil
	case xg.Cylinder != nil:
		radius, err := parseFloat(xg.Cylinder.Radius)
		if err != nil {
			return nil, malformed("cylinder radius: %v", err)
		}
		length, err := parseFloat(xg.Cylinder.Length)
		if err != nil {
			return nil, malformed("cylinder length: %v", err)
		}
		return Cylinder{Radius: radius, Length: length}, nil
	case xg.Sphere != nil:
		radius, err := parseFloat(xg.Sphere.Radius)
		if err != nil {
			return nil, malformed("sphere radius: %v", err)
		}
		return Sphere{Radius: radius}, nil
	default:
		return nil, nil
	}
}

func parseMaterial(xm *xmlMaterial) (Material, error) {
	mat := Material{Name: xm.Name}
	if xm.Color != nil {
		rgba, err := parseFloats(xm.Color.RGBA, 4)
		if err != nil {
			return Material{}, malformed("material %q color: %v", xm.Name, err)
		}
		c := Color{rgba[0], rgba[1], rgba[2], rgba[3]}
		mat.Color = &c
	}
	if xm.Texture != nil {
		mat.Texture = xm.Texture.Filename
	}
	return mat, nil
}

func parseOrigin(xo *xmlOrigin) (Pose, error) {
	var p Pose
	if xo == nil {
		return p, nil
	}
	var err error
	if xo.XYZ != "" {
		if p.XYZ, err = parseVec3(xo.XYZ); err != nil {
			return Pose{}, err
		}
	}
	if xo.RPY != "" {
		if p.RPY, err = parseVec3(xo.RPY); err != nil {
			return Pose{}, err
		}
	}
	return p, nil
}

func parseVec3(s string) (mathutil.Vec3, error) {
	f, err := parseFloats(s, 3)
	if err != nil {
		return mathutil.Vec3{}, err
	}
	return mathutil.Vec3{f[0], f[1], f[2]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", field)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}
