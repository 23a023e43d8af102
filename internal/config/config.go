// Package config resolves the run-time settings for drivesync: where the
// OAuth files live, where transfers land and the logging destination.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigDir is where drivesync keeps its own state (config file, log).
	ConfigDir = "~/.drivesync"
	// LogFile is the log destination inside ConfigDir.
	LogFile = "drivesync.log"

	// Default working directories, relative to the base directory.
	DefaultTokensDir       = "Tokens"
	DefaultDownloadsDir    = "Downloads"
	DefaultUploadsDir      = "Uploads"
	DefaultInstructionsDir = "Instructions"

	// Files expected inside the tokens directory.
	CredentialsFile = "credentials.json"
	TokenFile       = "token.json"

	envPrefix = "DRIVESYNC"
)

// Config holds the resolved settings for a run. All paths are absolute
// once Load returns.
type Config struct {
	BaseDir         string
	TokensDir       string
	DownloadsDir    string
	UploadsDir      string
	InstructionsDir string
	LogPath         string
	Verbose         bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", ".")
	v.SetDefault("tokens_dir", DefaultTokensDir)
	v.SetDefault("downloads_dir", DefaultDownloadsDir)
	v.SetDefault("uploads_dir", DefaultUploadsDir)
	v.SetDefault("instructions_dir", DefaultInstructionsDir)
	v.SetDefault("verbose", false)
}

// Load reads the optional config file in ~/.drivesync, applies DRIVESYNC_*
// environment overrides and resolves every path against the base directory.
func Load() (*Config, error) {
	return load(viper.New(), "")
}

// LoadWithFlags is Load with command-line flags layered on top: a
// changed flag beats the environment and the config file. cfgFile, when
// set, names the config file to read instead of the default location,
// and then it must exist.
func LoadWithFlags(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if fs != nil {
		bindings := map[string]string{
			"base_dir":         "base-dir",
			"tokens_dir":       "tokens-dir",
			"downloads_dir":    "downloads-dir",
			"uploads_dir":      "uploads-dir",
			"instructions_dir": "instructions-dir",
			"verbose":          "verbose",
		}
		for key, name := range bindings {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	return load(v, cfgFile)
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	configDir, err := homedir.Expand(ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("expand config dir: %w", err)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file just means defaults; a config
		// file named explicitly has to be readable.
		if _, ok := err.(viper.ConfigFileNotFoundError); cfgFile != "" || !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	base, err := homedir.Expand(v.GetString("base_dir"))
	if err != nil {
		return nil, fmt.Errorf("expand base dir: %w", err)
	}
	base, err = filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}

	cfg := &Config{
		BaseDir:         base,
		TokensDir:       resolve(base, v.GetString("tokens_dir")),
		DownloadsDir:    resolve(base, v.GetString("downloads_dir")),
		UploadsDir:      resolve(base, v.GetString("uploads_dir")),
		InstructionsDir: resolve(base, v.GetString("instructions_dir")),
		LogPath:         filepath.Join(configDir, LogFile),
		Verbose:         v.GetBool("verbose"),
	}
	return cfg, nil
}

// resolve joins a possibly relative path onto base, expanding ~ first.
func resolve(base, path string) string {
	expanded, err := homedir.Expand(path)
	if err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// CredentialsPath is the OAuth client secret file location.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.TokensDir, CredentialsFile)
}

// TokenPath is the cached OAuth token location.
func (c *Config) TokenPath() string {
	return filepath.Join(c.TokensDir, TokenFile)
}

// EnsureDirs creates the working directories if they do not exist yet.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.TokensDir, c.DownloadsDir, c.UploadsDir, c.InstructionsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// SetupLogging points logrus at stderr plus the log file in ~/.drivesync.
// The file stays open for the lifetime of the process.
func (c *Config) SetupLogging() error {
	level := logrus.InfoLevel
	if c.Verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}
