// Package config loads CLI flags and an optional JSON configuration
// file, merging them with flags taking precedence over file values.
package config

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the fully resolved set of settings the daemon runs with.
type Config struct {
	Help    bool
	Address string
	Port    int

	Username string
	Password string

	AudioDeviceName   string
	CacheDir          string
	LastFMUsername    string
	LastFMPassword    string
	TrackStatFilename string
	VolumeNormalize   bool

	ConfFile string
}

// fileConfig mirrors the recognized keys of the JSON configuration
// file (§6).
type fileConfig struct {
	SpotifyUsername   *string `json:"spotify_username"`
	SpotifyPassword   *string `json:"spotify_password"`
	AudioDeviceName   *string `json:"audio_device_name"`
	CacheDir          *string `json:"cache_dir"`
	LastFMUsername    *string `json:"last_fm_username"`
	LastFMPassword    *string `json:"last_fm_password"`
	TrackStatFilename *string `json:"track_stat_filename"`
	VolumeNormalize   *bool   `json:"volume_normalization"`
}

// defaultConfFile is the configuration file read when --conf/-c is not
// given.
const defaultConfFile = "spotihifi.conf"

// defaultAudioDeviceName means "fall back to the config file", per §6.
const defaultAudioDeviceName = "default"

// Parse parses args (excluding the program name) against a fresh flag
// set, loads the JSON config file it names (or the default, if
// present), and returns the merged Config. A missing config file at
// the default path is not an error; a missing file at an explicitly
// named path is.
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("spotihifid", pflag.ContinueOnError)

	help := fs.BoolP("help", "h", false, "show this help message and exit")
	address := fs.StringP("address", "a", "0.0.0.0", "address to listen on")
	port := fs.IntP("port", "p", 6901, "port to listen on")
	username := fs.StringP("username", "u", "", "streaming service username")
	password := fs.String("password", "", "streaming service password")
	audioDevice := fs.String("audio-device", defaultAudioDeviceName, "audio output device name")
	confFile := fs.StringP("conf", "c", defaultConfFile, "configuration file path")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "failed to parse command line")
	}

	cfg := &Config{
		Help:            *help,
		Address:         *address,
		Port:            *port,
		Username:        *username,
		Password:        *password,
		AudioDeviceName: *audioDevice,
		ConfFile:        *confFile,
	}
	if cfg.Help {
		return cfg, nil
	}

	explicit := *confFile != defaultConfFile
	fc, err := loadFileConfig(*confFile, explicit)
	if err != nil {
		return nil, err
	}
	if fc != nil {
		mergeFileConfig(cfg, fc, fs)
	}

	return cfg, nil
}

func loadFileConfig(path string, mustExist bool) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrapf(err, "configuration file %q is not valid json", path)
	}
	return &fc, nil
}

// mergeFileConfig fills in values the file supplies, but only for
// flags the caller did not explicitly set on the command line: CLI
// flags always take precedence (§6).
func mergeFileConfig(cfg *Config, fc *fileConfig, fs *pflag.FlagSet) {
	if fc.SpotifyUsername != nil && !fs.Changed("username") {
		cfg.Username = *fc.SpotifyUsername
	}
	if fc.SpotifyPassword != nil && !fs.Changed("password") {
		cfg.Password = *fc.SpotifyPassword
	}
	if fc.AudioDeviceName != nil && (!fs.Changed("audio-device") || cfg.AudioDeviceName == defaultAudioDeviceName) {
		cfg.AudioDeviceName = *fc.AudioDeviceName
	}
	if fc.CacheDir != nil {
		cfg.CacheDir = *fc.CacheDir
	}
	if fc.LastFMUsername != nil {
		cfg.LastFMUsername = *fc.LastFMUsername
	}
	if fc.LastFMPassword != nil {
		cfg.LastFMPassword = *fc.LastFMPassword
	}
	if fc.TrackStatFilename != nil {
		cfg.TrackStatFilename = *fc.TrackStatFilename
	}
	if fc.VolumeNormalize != nil {
		cfg.VolumeNormalize = *fc.VolumeNormalize
	}
}
