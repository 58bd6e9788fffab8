package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Recognition.Endpoint = strings.TrimSpace(c.Recognition.Endpoint)
	c.Recognition.APIKey = strings.TrimSpace(c.Recognition.APIKey)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	var err error
	if c.Cache.SQLitePath, err = expandPath(c.Cache.SQLitePath); err != nil {
		return fmt.Errorf("cache.sqlite_path: %w", err)
	}
	if c.Extractor.TempDir, err = expandPath(c.Extractor.TempDir); err != nil {
		return fmt.Errorf("extractor.temp_dir: %w", err)
	}
	if strings.HasPrefix(c.Extractor.YTDLPPath, "~") {
		if c.Extractor.YTDLPPath, err = expandPath(c.Extractor.YTDLPPath); err != nil {
			return fmt.Errorf("extractor.ytdlp_path: %w", err)
		}
	}

	ids := c.Extractor.DownloadFirst[:0]
	for _, id := range c.Extractor.DownloadFirst {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			ids = append(ids, id)
		}
	}
	c.Extractor.DownloadFirst = ids
	return nil
}

// applyEnv lets deployments override the file without editing it.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("REDIS_HOST")); v != "" {
		c.Cache.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIAUTILITY_RECOGNITION_URL")); v != "" {
		c.Recognition.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIAUTILITY_RECOGNITION_KEY")); v != "" {
		c.Recognition.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIAUTILITY_TEMP_DIR")); v != "" {
		c.Extractor.TempDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}
