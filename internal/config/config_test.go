package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotihifi.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Address)
	assert.Equal(t, 6901, cfg.Port)
	assert.Equal(t, defaultAudioDeviceName, cfg.AudioDeviceName)
}

func TestHelpShortCircuitsFileLoad(t *testing.T) {
	cfg, err := Parse([]string{"--help", "--conf", filepath.Join(t.TempDir(), "missing.conf")})
	require.NoError(t, err)
	assert.True(t, cfg.Help)
}

func TestFileConfigFillsUnsetFlags(t *testing.T) {
	path := writeConfFile(t, `{
		"spotify_username": "fileuser",
		"spotify_password": "filepass",
		"audio_device_name": "hw:1,0",
		"volume_normalization": true
	}`)

	cfg, err := Parse([]string{"--conf", path})
	require.NoError(t, err)
	assert.Equal(t, "fileuser", cfg.Username)
	assert.Equal(t, "filepass", cfg.Password)
	assert.Equal(t, "hw:1,0", cfg.AudioDeviceName)
	assert.True(t, cfg.VolumeNormalize)
}

func TestCLIFlagsTakePrecedenceOverFile(t *testing.T) {
	path := writeConfFile(t, `{"spotify_username": "fileuser"}`)

	cfg, err := Parse([]string{"--conf", path, "--username", "cliuser"})
	require.NoError(t, err)
	assert.Equal(t, "cliuser", cfg.Username)
}

func TestMissingExplicitConfFileIsError(t *testing.T) {
	_, err := Parse([]string{"--conf", filepath.Join(t.TempDir(), "missing.conf")})
	assert.Error(t, err)
}

func TestMissingDefaultConfFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Username)
}
