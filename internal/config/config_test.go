package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setHome(t)
	t.Setenv("DRIVESYNC_BASE_DIR", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, home, cfg.BaseDir)
	assert.Equal(t, filepath.Join(home, "Tokens"), cfg.TokensDir)
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.DownloadsDir)
	assert.Equal(t, filepath.Join(home, "Uploads"), cfg.UploadsDir)
	assert.Equal(t, filepath.Join(home, "Instructions"), cfg.InstructionsDir)
	assert.Equal(t, filepath.Join(home, ".drivesync", "drivesync.log"), cfg.LogPath)
	assert.False(t, cfg.Verbose)

	assert.Equal(t, filepath.Join(home, "Tokens", "credentials.json"), cfg.CredentialsPath())
	assert.Equal(t, filepath.Join(home, "Tokens", "token.json"), cfg.TokenPath())
}

func TestLoadConfigFile(t *testing.T) {
	home := setHome(t)

	dir := filepath.Join(home, ".drivesync")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yaml := "base_dir: " + home + "\ndownloads_dir: pulled\nverbose: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "pulled"), cfg.DownloadsDir)
	assert.True(t, cfg.Verbose)
	// Untouched settings keep their defaults.
	assert.Equal(t, filepath.Join(home, "Uploads"), cfg.UploadsDir)
}

func TestLoadEnvOverride(t *testing.T) {
	home := setHome(t)
	t.Setenv("DRIVESYNC_BASE_DIR", home)
	t.Setenv("DRIVESYNC_TOKENS_DIR", "/var/lib/drivesync/tokens")

	cfg, err := Load()
	require.NoError(t, err)

	// Absolute paths are taken as-is instead of being joined onto base.
	assert.Equal(t, "/var/lib/drivesync/tokens", cfg.TokensDir)
	assert.Equal(t, filepath.Join("/var/lib/drivesync/tokens", "token.json"), cfg.TokenPath())
}

func TestLoadWithFlags(t *testing.T) {
	home := setHome(t)
	t.Setenv("DRIVESYNC_BASE_DIR", "/somewhere/else")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("base-dir", ".", "")
	fs.Bool("verbose", false, "")
	require.NoError(t, fs.Parse([]string{"--base-dir", home, "--verbose"}))

	cfg, err := LoadWithFlags("", fs)
	require.NoError(t, err)

	// Changed flags beat the environment.
	assert.Equal(t, home, cfg.BaseDir)
	assert.True(t, cfg.Verbose)
}

func TestLoadWithFlagsExplicitConfigFile(t *testing.T) {
	home := setHome(t)

	path := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_dir: "+home+"\nverbose: true\n"), 0o644))

	cfg, err := LoadWithFlags(path, nil)
	require.NoError(t, err)
	assert.Equal(t, home, cfg.BaseDir)
	assert.True(t, cfg.Verbose)

	_, err = LoadWithFlags(filepath.Join(home, "missing.yaml"), nil)
	require.Error(t, err, "a named config file has to exist")
}

func TestEnsureDirs(t *testing.T) {
	home := setHome(t)
	t.Setenv("DRIVESYNC_BASE_DIR", home)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.TokensDir, cfg.DownloadsDir, cfg.UploadsDir, cfg.InstructionsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}

	// Idempotent on a second run.
	assert.NoError(t, cfg.EnsureDirs())
}
