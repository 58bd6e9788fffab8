package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/cache"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	switch c.Cache.Backend {
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("cache.redis_url must be set for the redis backend")
		}
	case cache.BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return errors.New("cache.sqlite_path must be set for the sqlite backend")
		}
	case cache.BackendMemory:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if c.Recognition.Endpoint != "" {
		u, err := url.Parse(c.Recognition.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("recognition.endpoint: %q is not an http(s) URL", c.Recognition.Endpoint)
		}
	}
	if c.Recognition.TimeoutSeconds < 0 {
		return errors.New("recognition.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.SampleRate <= 0 {
		return errors.New("extractor.sample_rate must be positive")
	}
	if c.Extractor.FFmpegPath == "" {
		return errors.New("extractor.ffmpeg_path must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	return nil
}
