// Package locator asks yt-dlp what a link points to and fetches media that
// cannot be read remotely.
package locator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

var (
	// ErrPlaylistIndexOutOfRange is returned when a collection has no entry
	// at the requested 1-based index.
	ErrPlaylistIndexOutOfRange = errors.New("playlist index out of range")

	// ErrMalformedInfo is returned when yt-dlp prints something that is not
	// a usable info document.
	ErrMalformedInfo = errors.New("malformed extractor output")
)

// Extractors whose CDNs reject the ranged requests ffmpeg uses to seek.
var DefaultDownloadFirst = []string{"tiktok", "instagram", "twitter", "reddit"}

const (
	// DefaultSampleFormat prefers the smallest audio rendition.
	DefaultSampleFormat = "worstaudio/worst"
	// DefaultMediaFormat is used when the caller wants the media itself.
	DefaultMediaFormat = "best"
)

// Logger is the subset of pkg/logger used here.
type Logger interface {
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
}

type Config struct {
	Format        string
	DownloadFirst []string
	Runner        Runner
	Logger        Logger
}

// Locator resolves links into MediaReferences.
type Locator struct {
	format        string
	downloadFirst map[string]struct{}
	runner        Runner
	log           Logger
}

func New(cfg Config) *Locator {
	if cfg.Format == "" {
		cfg.Format = DefaultSampleFormat
	}
	if cfg.DownloadFirst == nil {
		cfg.DownloadFirst = DefaultDownloadFirst
	}
	if cfg.Runner == nil {
		cfg.Runner = &YTDLPRunner{}
	}

	deny := make(map[string]struct{}, len(cfg.DownloadFirst))
	for _, id := range cfg.DownloadFirst {
		deny[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	return &Locator{
		format:        cfg.Format,
		downloadFirst: deny,
		runner:        cfg.Runner,
		log:           cfg.Logger,
	}
}

// info is the part of yt-dlp's info JSON we rely on.
type info struct {
	Type          string  `json:"_type"`
	ID            string  `json:"id"`
	Extractor     string  `json:"extractor"`
	ExtractorKey  string  `json:"extractor_key"`
	URL           string  `json:"url"`
	Ext           string  `json:"ext"`
	Title         string  `json:"title"`
	WebpageURL    string  `json:"webpage_url"`
	PlaylistIndex int     `json:"playlist_index"`
	Entries       []*info `json:"entries"`
}

func (i *info) isCollection() bool {
	return i.Type == "playlist" || i.Type == "multi_video" || (i.Type == "" && i.Entries != nil)
}

func (i *info) reference() (*models.MediaReference, error) {
	extractor := i.Extractor
	if extractor == "" {
		extractor = i.ExtractorKey
	}
	if strings.TrimSpace(extractor) == "" || strings.TrimSpace(i.ID) == "" {
		return nil, fmt.Errorf("%w: missing extractor or id", ErrMalformedInfo)
	}
	return &models.MediaReference{
		ExtractorID: strings.ToLower(extractor),
		ContentID:   i.ID,
		StreamURL:   i.URL,
		RawExt:      i.Ext,
		Title:       i.Title,
		WebpageURL:  i.WebpageURL,
	}, nil
}

// selectEntry picks the 1-based playlistIndex out of a collection. yt-dlp
// has usually filtered the entries already, so the reported playlist_index
// wins over the position.
func selectEntry(i *info, playlistIndex int) (*info, error) {
	if playlistIndex < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPlaylistIndexOutOfRange, playlistIndex)
	}
	for _, e := range i.Entries {
		if e != nil && e.PlaylistIndex == playlistIndex {
			return e, nil
		}
	}
	if playlistIndex <= len(i.Entries) && i.Entries[playlistIndex-1] != nil {
		return i.Entries[playlistIndex-1], nil
	}
	return nil, fmt.Errorf("%w: %d (collection has %d entries)", ErrPlaylistIndexOutOfRange, playlistIndex, len(i.Entries))
}

func isUnsupported(err error) bool {
	return strings.Contains(err.Error(), "Unsupported URL")
}

// Locate returns what yt-dlp knows about rawURL without downloading it.
// A nil reference with a nil error means no extractor claims the link.
func (l *Locator) Locate(ctx context.Context, rawURL string, playlistIndex int) (*models.MediaReference, error) {
	if playlistIndex == 0 {
		playlistIndex = 1
	}
	if playlistIndex < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPlaylistIndexOutOfRange, playlistIndex)
	}

	out, err := l.runner.Run(ctx, Request{
		URL:           rawURL,
		PlaylistIndex: playlistIndex,
		Format:        l.format,
		MetadataOnly:  true,
	})
	if err != nil {
		if ctx.Err() == nil && isUnsupported(err) {
			l.debugf("No extractor for %s", rawURL)
			return nil, nil
		}
		return nil, fmt.Errorf("locating media: %w", err)
	}

	var doc info
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInfo, err)
	}

	entry := &doc
	if doc.isCollection() {
		if entry, err = selectEntry(&doc, playlistIndex); err != nil {
			return nil, err
		}
	}

	ref, err := entry.reference()
	if err != nil {
		return nil, err
	}
	l.debugf("Located %s as %s/%s", rawURL, ref.ExtractorID, ref.ContentID)
	return ref, nil
}

// NeedsDownload reports whether ref must be fetched in full before it can
// be sliced.
func (l *Locator) NeedsDownload(ref *models.MediaReference) bool {
	if ref == nil {
		return false
	}
	_, deny := l.downloadFirst[strings.ToLower(ref.ExtractorID)]
	return deny
}

// Download materializes rawURL into dir and returns the file path.
func (l *Locator) Download(ctx context.Context, rawURL string, playlistIndex int, dir string) (string, error) {
	if playlistIndex == 0 {
		playlistIndex = 1
	}

	if _, err := l.runner.Run(ctx, Request{
		URL:           rawURL,
		PlaylistIndex: playlistIndex,
		Format:        l.format,
		Output:        filepath.Join(dir, "input.%(ext)s"),
	}); err != nil {
		return "", fmt.Errorf("downloading media: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "input.*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		if st, err := os.Stat(m); err == nil && st.Mode().IsRegular() {
			l.infof("Downloaded %s (%s)", rawURL, humanize.Bytes(uint64(st.Size())))
			return m, nil
		}
	}
	return "", fmt.Errorf("downloaded file not found in %s", dir)
}

func (l *Locator) infof(format string, args ...any) {
	if l.log != nil {
		l.log.Infof(format, args...)
	}
}

func (l *Locator) debugf(format string, args ...any) {
	if l.log != nil {
		l.log.Debugf(format, args...)
	}
}
