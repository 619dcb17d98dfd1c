// Package rospkg resolves package:// resource references against ROS
// package installations, supporting both the ROS 2 ament index and the
// ROS 1 package-path scan.
package rospkg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UnresolvedPackageError reports a package name that no configured
// resolution scheme could locate.
type UnresolvedPackageError struct {
	Package string
}

func (e *UnresolvedPackageError) Error() string {
	return fmt.Sprintf("rospkg: package %q not found in any package index", e.Package)
}

// Resolver maps a ROS package name to the directory holding its resources.
type Resolver interface {
	Resolve(pkg string) (string, error)
}

// AmentIndex resolves packages through the ROS 2 ament resource index: a
// package p installed under prefix has a marker file
// <prefix>/share/ament_index/resource_index/packages/<p> and its share
// directory at <prefix>/share/<p>.
type AmentIndex struct {
	Prefixes []string
}

func (a *AmentIndex) Resolve(pkg string) (string, error) {
	for _, prefix := range a.Prefixes {
		marker := filepath.Join(prefix, "share", "ament_index", "resource_index", "packages", pkg)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return filepath.Join(prefix, "share", pkg), nil
		}
	}
	return "", &UnresolvedPackageError{Package: pkg}
}

// PackagePath resolves packages the ROS 1 way: walk each root directory
// in order and take the first directory whose base name matches the
// package and which contains a package.xml or manifest.xml. Package
// directories are not descended into, matching catkin's crawler.
type PackagePath struct {
	Roots []string
}

func (p *PackagePath) Resolve(pkg string) (string, error) {
	for _, root := range p.Roots {
		found := ""
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if !isPackageDir(path) {
				return nil
			}
			if filepath.Base(path) == pkg {
				found = path
				return filepath.SkipAll
			}
			return fs.SkipDir
		})
		if found != "" {
			return found, nil
		}
	}
	return "", &UnresolvedPackageError{Package: pkg}
}

func isPackageDir(path string) bool {
	for _, manifest := range []string{"package.xml", "manifest.xml"} {
		if info, err := os.Stat(filepath.Join(path, manifest)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Chain tries each resolver in order and returns the first success.
type Chain []Resolver

func (c Chain) Resolve(pkg string) (string, error) {
	for _, r := range c {
		if path, err := r.Resolve(pkg); err == nil {
			return path, nil
		}
	}
	return "", &UnresolvedPackageError{Package: pkg}
}

// FromEnv builds the standard resolver chain from environment values:
// the ament index first (AMENT_PREFIX_PATH), then the ROS 1 package scan
// (ROS_PACKAGE_PATH). getenv is injected so tests can substitute an
// environment; extraRoots are searched by the ROS 1 scheme after the
// environment roots.
func FromEnv(getenv func(string) string, extraRoots ...string) Chain {
	var chain Chain
	if prefixes := splitPathList(getenv("AMENT_PREFIX_PATH")); len(prefixes) > 0 {
		chain = append(chain, &AmentIndex{Prefixes: prefixes})
	}
	roots := splitPathList(getenv("ROS_PACKAGE_PATH"))
	roots = append(roots, extraRoots...)
	if len(roots) > 0 {
		chain = append(chain, &PackagePath{Roots: roots})
	}
	return chain
}

func splitPathList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, string(os.PathListSeparator)) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ResolveFilename turns a URDF resource reference into a filesystem path:
// package://pkg/rel goes through the resolver, file:// URIs are stripped,
// and bare relative paths are joined against baseDir (the directory of
// the document that referenced them).
func ResolveFilename(r Resolver, name, baseDir string) (string, error) {
	switch {
	case strings.HasPrefix(name, "package://"):
		rest := strings.TrimPrefix(name, "package://")
		pkg, rel, _ := strings.Cut(rest, "/")
		if pkg == "" {
			return "", &UnresolvedPackageError{Package: pkg}
		}
		if r == nil {
			return "", &UnresolvedPackageError{Package: pkg}
		}
		dir, err := r.Resolve(pkg)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, filepath.FromSlash(rel)), nil
	case strings.HasPrefix(name, "file://"):
		return strings.TrimPrefix(name, "file://"), nil
	case filepath.IsAbs(name) || baseDir == "":
		return name, nil
	default:
		return filepath.Join(baseDir, name), nil
	}
}
