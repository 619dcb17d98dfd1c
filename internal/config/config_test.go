package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndResolve(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loader.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"package_paths": ["/opt/ros/noetic/share"],
		"entity_path_prefix": "robots",
		"texture_max_dim": 256
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/ros/noetic/share"}, cfg.PackagePaths)
	assert.Equal(t, "robots", cfg.EntityPathPrefix)

	// Flags beat the file.
	cfg.Resolve(Flags{EntityPathPrefix: "cli_prefix"})
	assert.Equal(t, "cli_prefix", cfg.EntityPathPrefix)
	assert.Equal(t, 256, cfg.TextureMaxDim)
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.Resolve(Flags{})
	assert.Equal(t, 1024, cfg.TextureMaxDim)
	assert.Empty(t, cfg.EntityPathPrefix)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
