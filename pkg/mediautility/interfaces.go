package mediautility

import (
	"context"

	"github.com/aidanngill/MediaUtility/pkg/mediautility/sample"
	"github.com/aidanngill/MediaUtility/pkg/models"
)

type Service interface {
	// FindSong identifies the song playing in the media behind rawURL.
	// A nil song with a nil error means nothing was recognized.
	FindSong(ctx context.Context, rawURL string, opts FindOptions) (*models.Song, error)
	// FindFile identifies the song in a local media file. Results are not
	// cached.
	FindFile(ctx context.Context, path string, opts FindOptions) (*models.Song, error)
	// Extract returns the direct media URL behind a post.
	Extract(ctx context.Context, rawURL string, playlistIndex int) (*models.MediaReference, error)
	CacheDegraded() bool
	Close() error
}

type Locator interface {
	Locate(ctx context.Context, rawURL string, playlistIndex int) (*models.MediaReference, error)
}

type Extractor interface {
	Extract(ctx context.Context, req models.SampleRequest) (*sample.Sample, error)
}

type Recognizer interface {
	Recognize(ctx context.Context, samplePath string) (models.RecognitionResult, error)
}

type Cache interface {
	Lookup(ctx context.Context, key string) models.CachedOutcome
	StoreNoMatch(ctx context.Context, key string)
	StoreIdentified(ctx context.Context, key string, song *models.Song)
	Degraded() bool
	Close() error
}

// OffsetResolver reads a start offset out of a link for the given
// extractor.
type OffsetResolver func(rawURL, extractorID string) (seconds int, ok bool, err error)

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
