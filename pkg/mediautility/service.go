// Package mediautility identifies songs in media links and files.
//
// A request resolves the sample offset, consults the result cache, and only
// on a miss cuts a short sample with ffmpeg and sends it to the recognition
// service.
package mediautility

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/cache"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/locator"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/recognition"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/sample"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/timestamp"
	"github.com/aidanngill/MediaUtility/pkg/models"
)

// FindOptions controls a single identification.
type FindOptions struct {
	// Start overrides the offset read from the link.
	Start *int
	// Duration of the sample in seconds, default 15.
	Duration int
	// PlaylistIndex selects an entry of a playlist link, 1-based.
	PlaylistIndex int
	UseCache      bool
}

func DefaultFindOptions() FindOptions {
	return FindOptions{
		Duration:      models.DefaultSampleSeconds,
		PlaylistIndex: 1,
		UseCache:      true,
	}
}

func (o FindOptions) normalize() FindOptions {
	if o.Duration <= 0 {
		o.Duration = models.DefaultSampleSeconds
	}
	if o.PlaylistIndex == 0 {
		o.PlaylistIndex = 1
	}
	return o
}

type mediaService struct {
	locator      Locator
	mediaLocator Locator
	extractor    Extractor
	recognizer   Recognizer
	cache        Cache
	resolve      OffsetResolver
	log          Logger
}

// scoped prefixes log lines with the component name when the logger
// supports it.
func scoped(log Logger, component string) Logger {
	if l, ok := log.(*logger.Logger); ok {
		return l.WithPrefix(component)
	}
	return log
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.OffsetResolver == nil {
		cfg.OffsetResolver = timestamp.FromExtractor
	}

	runner := &locator.YTDLPRunner{Executable: cfg.YTDLPPath, AutoInstall: cfg.YTDLPAutoInstall}

	if cfg.Locator == nil {
		cfg.Locator = locator.New(locator.Config{
			Format:        locator.DefaultSampleFormat,
			DownloadFirst: cfg.DownloadFirst,
			Runner:        runner,
			Logger:        scoped(cfg.Logger, "locator"),
		})
	}
	if cfg.MediaLocator == nil {
		cfg.MediaLocator = locator.New(locator.Config{
			Format: locator.DefaultMediaFormat,
			Runner: runner,
			Logger: scoped(cfg.Logger, "locator"),
		})
	}

	if cfg.Extractor == nil {
		fetcher, _ := cfg.Locator.(sample.Fetcher)
		cfg.Extractor = sample.New(sample.Config{
			FFmpegPath: cfg.FFmpegPath,
			TempDir:    cfg.TempDir,
			SampleRate: cfg.SampleRate,
			Fetcher:    fetcher,
			Logger:     scoped(cfg.Logger, "sample"),
		})
	}

	if cfg.Recognizer == nil && cfg.RecognitionURL != "" {
		rec, err := recognition.New(recognition.Config{
			Endpoint:     cfg.RecognitionURL,
			APIKey:       cfg.RecognitionAPIKey,
			APIKeyHeader: cfg.RecognitionAPIKeyHeader,
			Timeout:      cfg.RecognitionTimeout,
			Logger:       scoped(cfg.Logger, "recognition"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create recognition client: %w", err)
		}
		cfg.Recognizer = rec
	}

	if cfg.Cache == nil && cfg.CacheEnabled {
		store, err := cache.OpenStore(cfg.CacheBackend, cfg.RedisURL, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache store: %w", err)
		}
		cfg.Cache = cache.New(cache.Config{
			Primary:    store,
			Logger:     scoped(cfg.Logger, "cache"),
			OnDegraded: cfg.OnDegraded,
		})
	}

	return &mediaService{
		locator:      cfg.Locator,
		mediaLocator: cfg.MediaLocator,
		extractor:    cfg.Extractor,
		recognizer:   cfg.Recognizer,
		cache:        cfg.Cache,
		resolve:      cfg.OffsetResolver,
		log:          cfg.Logger,
	}, nil
}

func validateLink(raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLink, raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLink, u.Scheme)
	}
	if u.Hostname() == "" || strings.ContainsAny(u.Host, " \t") {
		return fmt.Errorf("%w: missing host", ErrInvalidLink)
	}
	return nil
}

// startOffset picks the explicit offset, then the one encoded in the link,
// then zero.
func (s *mediaService) startOffset(rawURL string, ref *models.MediaReference, explicit *int) (int, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, fmt.Errorf("%w: negative start %d", ErrOffsetParse, *explicit)
		}
		return *explicit, nil
	}
	if ref == nil {
		return 0, nil
	}
	seconds, ok, err := s.resolve(rawURL, ref.ExtractorID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if seconds < 0 {
		return 0, fmt.Errorf("%w: negative start %d in link", ErrOffsetParse, seconds)
	}
	return seconds, nil
}

func (s *mediaService) FindSong(ctx context.Context, rawURL string, opts FindOptions) (*models.Song, error) {
	if err := validateLink(rawURL); err != nil {
		return nil, err
	}
	opts = opts.normalize()
	begin := time.Now()

	ref, err := s.locator.Locate(ctx, rawURL, opts.PlaylistIndex)
	if err != nil {
		return nil, fmt.Errorf("locating media: %w", err)
	}

	start, err := s.startOffset(rawURL, ref, opts.Start)
	if err != nil {
		return nil, err
	}

	var key string
	cacheable := false
	if opts.UseCache && s.cache != nil {
		key, cacheable = cache.KeyFor(ref, start)
	}
	if cacheable {
		if out := s.cache.Lookup(ctx, key); out.Hit() {
			s.log.Debugf("Serving %s from cache (%s)", key, out.Kind)
			return out.Song, nil
		}
	}

	// Cached outcomes are served without a recognizer.
	if s.recognizer == nil {
		return nil, ErrNoRecognizer
	}

	s.log.Infof("Sampling %s at %s", rawURL, timestamp.Format(start))
	song, err := s.identify(ctx, models.SampleRequest{
		Link:            rawURL,
		Source:          ref.Source(rawURL),
		StartSeconds:    start,
		DurationSeconds: opts.Duration,
		PlaylistIndex:   opts.PlaylistIndex,
		Reference:       ref,
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		if song == nil {
			s.cache.StoreNoMatch(ctx, key)
		} else {
			s.cache.StoreIdentified(ctx, key, song)
		}
	}
	s.logResult(rawURL, song, begin)
	return song, nil
}

func (s *mediaService) FindFile(ctx context.Context, path string, opts FindOptions) (*models.Song, error) {
	if s.recognizer == nil {
		return nil, ErrNoRecognizer
	}
	opts = opts.normalize()
	start := 0
	if opts.Start != nil {
		if *opts.Start < 0 {
			return nil, fmt.Errorf("%w: negative start %d", ErrOffsetParse, *opts.Start)
		}
		start = *opts.Start
	}

	begin := time.Now()
	song, err := s.identify(ctx, models.SampleRequest{
		Source:          path,
		StartSeconds:    start,
		DurationSeconds: opts.Duration,
	})
	if err != nil {
		return nil, err
	}
	s.logResult(path, song, begin)
	return song, nil
}

// identify samples and recognizes req. The sample is removed before it
// returns.
func (s *mediaService) identify(ctx context.Context, req models.SampleRequest) (*models.Song, error) {
	smp, err := s.extractor.Extract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extracting sample: %w", err)
	}
	defer func() {
		if err := smp.Close(); err != nil {
			s.log.Warnf("Removing sample %s: %v", smp.Path, err)
		}
	}()

	res, err := s.recognizer.Recognize(ctx, smp.Path)
	if err != nil {
		return nil, fmt.Errorf("recognizing sample: %w", err)
	}
	return res.Song, nil
}

func (s *mediaService) logResult(source string, song *models.Song, begin time.Time) {
	took := time.Since(begin).Round(time.Millisecond)
	if song == nil {
		s.log.Infof("No song found in %s (%s)", source, took)
		return
	}
	s.log.Infof("Identified %q by %q in %s (%s)", song.Title, song.Artist, source, took)
}

func (s *mediaService) Extract(ctx context.Context, rawURL string, playlistIndex int) (*models.MediaReference, error) {
	if err := validateLink(rawURL); err != nil {
		return nil, err
	}
	ref, err := s.mediaLocator.Locate(ctx, rawURL, playlistIndex)
	if err != nil {
		return nil, fmt.Errorf("locating media: %w", err)
	}
	if ref == nil || ref.StreamURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoMedia, rawURL)
	}
	return ref, nil
}

func (s *mediaService) CacheDegraded() bool {
	return s.cache != nil && s.cache.Degraded()
}

func (s *mediaService) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
