package config

import (
	"os"

	"github.com/aidanngill/MediaUtility/pkg/mediautility/cache"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/locator"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/recognition"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/sample"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Cache: Cache{
			Enabled:    true,
			Backend:    cache.BackendRedis,
			RedisURL:   "redis://localhost",
			SQLitePath: "~/.local/share/mediautility/cache.sqlite3",
		},
		Recognition: Recognition{
			APIKeyHeader:   recognition.DefaultAPIKeyHeader,
			TimeoutSeconds: 60,
		},
		Extractor: Extractor{
			FFmpegPath:    "ffmpeg",
			DownloadFirst: append([]string(nil), locator.DefaultDownloadFirst...),
			TempDir:       os.TempDir(),
			SampleRate:    sample.DefaultSampleRate,
		},
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    50,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}
