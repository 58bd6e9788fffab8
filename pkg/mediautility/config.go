package mediautility

import (
	"os"
	"time"

	"github.com/aidanngill/MediaUtility/pkg/mediautility/cache"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/sample"
)

type Config struct {
	TempDir    string
	SampleRate int
	FFmpegPath string

	YTDLPPath        string
	YTDLPAutoInstall bool
	DownloadFirst    []string

	RecognitionURL          string
	RecognitionAPIKey       string
	RecognitionAPIKeyHeader string
	RecognitionTimeout      time.Duration

	CacheEnabled bool
	CacheBackend string
	RedisURL     string
	SQLitePath   string
	OnDegraded   func(error)

	Logger         Logger
	Locator        Locator
	MediaLocator   Locator
	Extractor      Extractor
	Recognizer     Recognizer
	Cache          Cache
	OffsetResolver OffsetResolver
}

type Option func(*Config)

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithFFmpegPath(path string) Option {
	return func(c *Config) {
		c.FFmpegPath = path
	}
}

// WithYTDLP sets the yt-dlp binary. An empty path with autoInstall
// downloads yt-dlp on first use.
func WithYTDLP(path string, autoInstall bool) Option {
	return func(c *Config) {
		c.YTDLPPath = path
		c.YTDLPAutoInstall = autoInstall
	}
}

func WithDownloadFirst(extractors []string) Option {
	return func(c *Config) {
		c.DownloadFirst = extractors
	}
}

func WithRecognitionEndpoint(url, apiKey string) Option {
	return func(c *Config) {
		c.RecognitionURL = url
		c.RecognitionAPIKey = apiKey
	}
}

func WithRecognitionAPIKeyHeader(header string) Option {
	return func(c *Config) {
		c.RecognitionAPIKeyHeader = header
	}
}

func WithRecognitionTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RecognitionTimeout = d
	}
}

// WithCacheBackend selects "redis", "sqlite" or "memory".
func WithCacheBackend(backend, redisURL, sqlitePath string) Option {
	return func(c *Config) {
		c.CacheBackend = backend
		c.RedisURL = redisURL
		c.SQLitePath = sqlitePath
	}
}

func WithCacheEnabled(enabled bool) Option {
	return func(c *Config) {
		c.CacheEnabled = enabled
	}
}

// WithDegradedHook is called once if the cache falls back to memory.
func WithDegradedHook(fn func(error)) Option {
	return func(c *Config) {
		c.OnDegraded = fn
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithLocator(l Locator) Option {
	return func(c *Config) {
		c.Locator = l
	}
}

// WithMediaLocator sets the locator used by Extract, which asks for the
// best rendition instead of the smallest audio.
func WithMediaLocator(l Locator) Option {
	return func(c *Config) {
		c.MediaLocator = l
	}
}

func WithExtractor(e Extractor) Option {
	return func(c *Config) {
		c.Extractor = e
	}
}

func WithRecognizer(r Recognizer) Option {
	return func(c *Config) {
		c.Recognizer = r
	}
}

func WithCache(c Cache) Option {
	return func(cfg *Config) {
		cfg.Cache = c
	}
}

func WithOffsetResolver(fn OffsetResolver) Option {
	return func(c *Config) {
		c.OffsetResolver = fn
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultConfig() *Config {
	return &Config{
		TempDir:        getEnvOrDefault("MEDIAUTILITY_TEMP_DIR", os.TempDir()),
		SampleRate:     sample.DefaultSampleRate,
		FFmpegPath:     "ffmpeg",
		RecognitionURL: os.Getenv("MEDIAUTILITY_RECOGNITION_URL"),
		CacheEnabled:   true,
		CacheBackend:   cache.BackendRedis,
		RedisURL:       getEnvOrDefault("REDIS_HOST", "redis://localhost"),
		SQLitePath:     cache.DefaultSQLiteFile,
	}
}
