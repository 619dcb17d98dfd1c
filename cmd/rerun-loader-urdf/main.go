// Command rerun-loader-urdf is an executable data-loader plugin for the
// Rerun Viewer. Any executable on $PATH whose name starts with
// `rerun-loader-` is treated as an external loader: the viewer invokes it
// with a file path and optional recording identifiers, ingests whatever
// the loader writes to stdout, and treats a special exit code as "this
// loader does not support that file, try the next one".
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"rerun-loader-urdf/internal/config"
	"rerun-loader-urdf/internal/mathutil"
	"rerun-loader-urdf/internal/rospkg"
	"rerun-loader-urdf/internal/scene"
	"rerun-loader-urdf/internal/sink"
	"rerun-loader-urdf/internal/texture"
	"rerun-loader-urdf/internal/urdf"
)

// exitIncompatible tells the viewer to try another loader. It must be
// accompanied by no output at all.
const exitIncompatible = 66

type args struct {
	filepath         string
	applicationID    string
	recordingID      string
	entityPathPrefix string
	static           bool
	times            []string
	sequences        []string
	configFile       string
}

func main() {
	a, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rerun-loader-urdf: %v\n", err)
		os.Exit(1)
	}

	code, err := run(a, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rerun-loader-urdf: %v\n", err)
	}
	os.Exit(code)
}

func parseArgs(argv []string) (args, error) {
	fs := pflag.NewFlagSet("rerun-loader-urdf", pflag.ContinueOnError)
	var a args
	fs.StringVar(&a.applicationID, "application-id", "", "recommended ID for the application")
	fs.String("opened-application-id", "", "recommended ID for the currently open application")
	fs.StringVar(&a.recordingID, "recording-id", "", "recommended ID for the recording")
	fs.String("opened-recording-id", "", "recommended ID for the currently open recording")
	fs.StringVar(&a.entityPathPrefix, "entity-path-prefix", "", "prefix for all entity paths")
	fs.BoolVar(&a.static, "static", false, "mark all data as static")
	fs.StringArrayVar(&a.times, "time", nil, "timestamps to log at (e.g. --time sim_time=1.5)")
	fs.StringArrayVar(&a.sequences, "sequence", nil, "sequences to log at (e.g. --sequence sim_frame=42)")
	fs.StringVar(&a.configFile, "config", "", "path to a loader config file")

	if err := fs.Parse(argv); err != nil {
		return args{}, err
	}
	if fs.NArg() != 1 {
		return args{}, fmt.Errorf("expected exactly one file path, got %d", fs.NArg())
	}
	a.filepath = fs.Arg(0)
	return a, nil
}

func run(a args, stdout io.Writer) (int, error) {
	if !isLoadableFile(a.filepath) {
		return exitIncompatible, nil
	}

	var cfg config.Config
	if a.configFile != "" {
		var err error
		cfg, err = config.Load(a.configFile)
		if err != nil {
			return 1, err
		}
	}
	cfg.Resolve(config.Flags{EntityPathPrefix: a.entityPathPrefix})

	model, err := urdf.ParseFile(a.filepath)
	if err != nil {
		var mde *urdf.MalformedDocumentError
		if errors.As(err, &mde) {
			// Not our kind of file. Stay silent so the viewer moves on.
			return exitIncompatible, nil
		}
		return 1, err
	}

	resolver := buildResolver(cfg)

	prefix := cfg.EntityPathPrefix
	if prefix == "" {
		prefix = filepath.Base(a.filepath)
	}

	nodes, warnings := scene.Build(model, scene.Options{
		Resolver:   resolver,
		BaseDir:    filepath.Dir(a.filepath),
		PathPrefix: prefix,
	})

	appID := a.applicationID
	if appID == "" {
		appID = a.filepath
	}

	rec := sink.NewStream(stdout, appID, a.recordingID)
	if !a.static {
		applyTimelines(rec, a.times, a.sequences)
	}

	logScene(rec, nodes, warnings, cfg.TextureMaxDim, a.static)

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "rerun-loader-urdf: warning: %s: %v\n", w.Path, w.Err)
	}
	if rec.Err() != nil {
		return 1, rec.Err()
	}
	return 0, nil
}

// isLoadableFile checks the loader's input contract: a regular file with
// a .urdf or .xacro extension. Anything else is another loader's problem.
func isLoadableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".urdf", ".xacro":
		return true
	}
	return false
}

func buildResolver(cfg config.Config) rospkg.Resolver {
	chain := rospkg.FromEnv(os.Getenv, cfg.PackagePaths...)
	if len(cfg.AmentPrefixes) > 0 {
		chain = append(rospkg.Chain{&rospkg.AmentIndex{Prefixes: cfg.AmentPrefixes}}, chain...)
	}
	return chain
}

// applyTimelines sets timeline values from repeated `timeline=value`
// flags. Entries that do not parse are skipped, matching the viewer's
// tolerance for loader arguments it introduced after a loader was built.
func applyTimelines(rec sink.Recording, times, sequences []string) {
	for _, arg := range times {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		rec.SetTimeSeconds(name, secs)
	}
	for _, arg := range sequences {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		seq, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		rec.SetTimeSequence(name, seq)
	}
}

func logScene(rec sink.Recording, nodes []scene.Node, warnings []scene.Warning, textureMaxDim int, static bool) {
	// Default ROS convention, logged once at the root.
	rec.ViewCoordinates("", sink.RightHandZUp)

	texCache := texture.NewCache()

	for _, node := range nodes {
		if node.Parent >= 0 {
			// Parent-relative transform; the viewer composes the
			// hierarchy along the entity path.
			rec.Transform(node.Path, node.Local.Translation(), mathutil.Mat3ToQuat(node.Local.Rotation()), static)
		}

		for _, inst := range node.Geometries {
			logGeometry(rec, inst, texCache, textureMaxDim, static)
		}
	}

	for _, w := range warnings {
		rec.Text(w.Path, w.Err.Error())
	}
}

func logGeometry(rec sink.Recording, inst scene.GeometryInstance, texCache *texture.Cache, maxDim int, static bool) {
	rec.Transform(inst.Path, inst.Origin.Translation(), mathutil.Mat3ToQuat(inst.Origin.Rotation()), static)

	switch g := inst.Geometry.(type) {
	case nil:
		// Placeholder: the warning was already recorded.
		return
	case urdf.Mesh:
		rec.Asset(inst.Path, inst.MeshPath, g.Scale, static)
	case urdf.Box:
		rec.Box(inst.Path, g.Size, inst.Color, static)
	case urdf.Cylinder:
		rec.Cylinder(inst.Path, g.Radius, g.Length, inst.Color, static)
	case urdf.Sphere:
		rec.Sphere(inst.Path, g.Radius, inst.Color, static)
	}

	if inst.TexturePath != "" {
		img, err := texCache.Get(inst.TexturePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rerun-loader-urdf: warning: %v\n", err)
			return
		}
		img = texture.Downsample(img, maxDim)
		webp, err := texture.EncodeWebP(img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rerun-loader-urdf: warning: %v\n", err)
			return
		}
		rec.AlbedoTexture(inst.Path, webp, img.Bounds().Dx(), img.Bounds().Dy())
	}
}
