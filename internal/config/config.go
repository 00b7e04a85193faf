package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

type StorageConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Extension string `mapstructure:"extension" yaml:"extension"` // container extension, e.g. "mp4", "ogg"
}

type CaptureConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`           // capture permission switch
	InputFormat string `mapstructure:"input_format" yaml:"input_format"` // ffmpeg input device format: "pulse", "alsa"
	Source      string `mapstructure:"source" yaml:"source"`
	Codec       string `mapstructure:"codec" yaml:"codec"`
	SampleRate  int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Monitor     bool   `mapstructure:"monitor" yaml:"monitor"` // play the growing file back while recording
}

type PlaybackConfig struct {
	Player       string        `mapstructure:"player" yaml:"player"` // "auto", "ffplay", "mpv", "vlc"
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
	// CORSOrigins may drive the API and the websocket from a browser. Empty
	// means same-origin only; "*" lets any web page record and delete.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// DefaultPath returns the config file used when --config is not given.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/looper.yaml")
}

func defaultDirectory() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "looper")
	}
	return filepath.Join(cacheDir, "looper")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Directory: defaultDirectory(),
			Extension: "mp4",
		},
		Capture: CaptureConfig{
			Enabled:     true,
			InputFormat: "pulse",
			Source:      "default",
			Codec:       "aac",
			SampleRate:  44100,
			Monitor:     true,
		},
		Playback: PlaybackConfig{
			Player:       "auto",
			PollInterval: 100 * time.Millisecond,
		},
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("storage.directory", def.Storage.Directory)
	v.SetDefault("storage.extension", def.Storage.Extension)
	v.SetDefault("capture.enabled", def.Capture.Enabled)
	v.SetDefault("capture.input_format", def.Capture.InputFormat)
	v.SetDefault("capture.source", def.Capture.Source)
	v.SetDefault("capture.codec", def.Capture.Codec)
	v.SetDefault("capture.sample_rate", def.Capture.SampleRate)
	v.SetDefault("capture.monitor", def.Capture.Monitor)
	v.SetDefault("playback.player", def.Playback.Player)
	v.SetDefault("playback.poll_interval", def.Playback.PollInterval)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.cors_origins", def.Server.CORSOrigins)
}

// Load reads configFile on top of the defaults. A missing file is not an
// error: the defaults (plus LOOPER_* environment overrides) are used.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LOOPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Storage.Directory = expandPath(cfg.Storage.Directory)
	cfg.Storage.Extension = strings.TrimPrefix(strings.ToLower(cfg.Storage.Extension), ".")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive capture and playback.
func (c *Config) Validate() error {
	if c.Storage.Directory == "" {
		return fmt.Errorf("storage.directory is required")
	}
	if c.Storage.Extension == "" {
		return fmt.Errorf("storage.extension is required")
	}
	if strings.ContainsAny(c.Storage.Extension, `/\ `) {
		return fmt.Errorf("storage.extension must be a bare extension, got: %s", c.Storage.Extension)
	}

	if c.Capture.InputFormat == "" {
		return fmt.Errorf("capture.input_format is required")
	}
	if c.Capture.Source == "" {
		return fmt.Errorf("capture.source is required")
	}
	if c.Capture.Codec == "" {
		return fmt.Errorf("capture.codec is required")
	}
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.sample_rate must be > 0, got: %d", c.Capture.SampleRate)
	}

	switch c.Playback.Player {
	case "", "auto", "ffplay", "mpv", "vlc":
	default:
		return fmt.Errorf("playback.player must be one of auto, ffplay, mpv, vlc, got: %s", c.Playback.Player)
	}
	if c.Playback.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("playback.poll_interval must be >= 10ms, got: %s", c.Playback.PollInterval)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
