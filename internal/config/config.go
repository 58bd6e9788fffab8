// Package config loads the TOML configuration shared by the CLI and server.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/aidanngill/MediaUtility/pkg/mediautility"
)

//go:embed sample_config.toml
var sampleConfig string

// Cache selects where recognition outcomes are remembered.
type Cache struct {
	Enabled    bool   `toml:"enabled"`
	Backend    string `toml:"backend"`
	RedisURL   string `toml:"redis_url"`
	SQLitePath string `toml:"sqlite_path"`
}

// Recognition configures the recognition service endpoint.
type Recognition struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	APIKeyHeader   string `toml:"api_key_header"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Extractor configures the yt-dlp and ffmpeg stages.
type Extractor struct {
	YTDLPPath     string   `toml:"ytdlp_path"`
	AutoInstall   bool     `toml:"auto_install"`
	FFmpegPath    string   `toml:"ffmpeg_path"`
	DownloadFirst []string `toml:"download_first"`
	TempDir       string   `toml:"temp_dir"`
	SampleRate    int      `toml:"sample_rate"`
}

// Server configures the HTTP API.
type Server struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxUploadMB    int      `toml:"max_upload_mb"`
}

type Logging struct {
	Level string `toml:"level"`
}

type Config struct {
	Cache       Cache       `toml:"cache"`
	Recognition Recognition `toml:"recognition"`
	Extractor   Extractor   `toml:"extractor"`
	Server      Server      `toml:"server"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediautility/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults and environment overrides apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mediautility.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// ServiceOptions maps the configuration onto mediautility options.
func (c *Config) ServiceOptions() []mediautility.Option {
	return []mediautility.Option{
		mediautility.WithTempDir(c.Extractor.TempDir),
		mediautility.WithSampleRate(c.Extractor.SampleRate),
		mediautility.WithFFmpegPath(c.Extractor.FFmpegPath),
		mediautility.WithYTDLP(c.Extractor.YTDLPPath, c.Extractor.AutoInstall),
		mediautility.WithDownloadFirst(c.Extractor.DownloadFirst),
		mediautility.WithRecognitionEndpoint(c.Recognition.Endpoint, c.Recognition.APIKey),
		mediautility.WithRecognitionAPIKeyHeader(c.Recognition.APIKeyHeader),
		mediautility.WithRecognitionTimeout(time.Duration(c.Recognition.TimeoutSeconds) * time.Second),
		mediautility.WithCacheEnabled(c.Cache.Enabled),
		mediautility.WithCacheBackend(c.Cache.Backend, c.Cache.RedisURL, c.Cache.SQLitePath),
	}
}
