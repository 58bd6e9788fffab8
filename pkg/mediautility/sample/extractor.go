// Package sample cuts short mono WAV clips out of remote or local media.
package sample

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aidanngill/MediaUtility/pkg/models"
	"github.com/aidanngill/MediaUtility/pkg/utils"
)

var (
	// ErrSourceUnavailable means the media could not be read at all.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrExtractionFailed means the transcoder ran but produced no usable clip.
	ErrExtractionFailed = errors.New("audio extraction failed")
)

const DefaultSampleRate = 16000

// Fetcher decides which sources must be downloaded before slicing and
// downloads them.
type Fetcher interface {
	NeedsDownload(ref *models.MediaReference) bool
	Download(ctx context.Context, rawURL string, playlistIndex int, dir string) (string, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type Config struct {
	FFmpegPath string // default "ffmpeg"
	TempDir    string // default os.TempDir()
	SampleRate int    // default 16000
	Fetcher    Fetcher
	Logger     Logger
}

// Extractor runs ffmpeg to produce recognition samples.
type Extractor struct {
	ffmpeg     string
	tempDir    string
	sampleRate int
	fetcher    Fetcher
	log        Logger

	exec func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(cfg Config) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Extractor{
		ffmpeg:     cfg.FFmpegPath,
		tempDir:    cfg.TempDir,
		sampleRate: cfg.SampleRate,
		fetcher:    cfg.Fetcher,
		log:        cfg.Logger,
		exec:       runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Sample is a clip on disk. Close removes it.
type Sample struct {
	Path     string
	Duration time.Duration
	Size     int64
	Silent   bool

	dir string
}

// Close deletes the sample and any intermediate files.
func (s *Sample) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return utils.DeleteDir(s.dir)
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp", "rtmp", "rtmps":
		return true
	}
	return false
}

// Extract cuts req.DurationSeconds of audio starting at req.StartSeconds.
// Sources on the fetcher's download-first list are downloaded in full and
// sliced locally. A clip shorter than requested is not an error.
func (e *Extractor) Extract(ctx context.Context, req models.SampleRequest) (_ *Sample, err error) {
	if req.DurationSeconds <= 0 {
		req.DurationSeconds = models.DefaultSampleSeconds
	}
	if req.StartSeconds < 0 {
		return nil, fmt.Errorf("%w: negative start offset %d", ErrExtractionFailed, req.StartSeconds)
	}
	if strings.TrimSpace(req.Source) == "" {
		return nil, fmt.Errorf("%w: empty source", ErrSourceUnavailable)
	}

	dir, err := utils.MakeTempDir(e.tempDir, "mediautility")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			utils.DeleteDir(dir)
		}
	}()

	input, err := e.acquire(ctx, req, dir)
	if err != nil {
		return nil, err
	}

	output := filepath.Join(dir, "sample.wav")
	args := e.ffmpegArgs(input, output, req.StartSeconds, req.DurationSeconds)

	e.debugf("Slicing %ds at %ds from %s", req.DurationSeconds, req.StartSeconds, input)
	if stderr, runErr := e.exec(ctx, e.ffmpeg, args...); runErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyFFmpegError(runErr, stderr)
	}

	info, err := inspect(output)
	if err != nil {
		return nil, err
	}

	s := &Sample{
		Path:     output,
		Duration: info.duration,
		Size:     info.size,
		Silent:   info.silent,
		dir:      dir,
	}
	if s.Duration < time.Duration(req.DurationSeconds)*time.Second {
		e.debugf("Sample truncated to %s (requested %ds)", s.Duration, req.DurationSeconds)
	}
	if s.Silent {
		e.warnf("Sample from %s is silent", req.Source)
	}
	e.infof("Extracted %s sample (%s)", s.Duration.Round(time.Millisecond), humanize.Bytes(uint64(s.Size)))
	return s, nil
}

// acquire returns the ffmpeg input for req, downloading it into dir first
// when required.
func (e *Extractor) acquire(ctx context.Context, req models.SampleRequest, dir string) (string, error) {
	if e.fetcher != nil && e.fetcher.NeedsDownload(req.Reference) {
		link := req.Link
		if link == "" {
			link = req.Source
		}
		e.debugf("Downloading %s before slicing", link)
		path, err := e.fetcher.Download(ctx, link, req.PlaylistIndex, dir)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return path, nil
	}

	if !isRemote(req.Source) {
		if _, err := os.Stat(req.Source); err != nil {
			return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
	}
	return req.Source, nil
}

func (e *Extractor) ffmpegArgs(input, output string, start, duration int) []string {
	return []string{
		"-nostdin",
		"-y",
		"-v", "error",
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(duration),
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(e.sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output,
	}
}

var unavailableMarkers = []string{
	"Server returned 4",
	"Server returned 5",
	"HTTP error",
	"Connection refused",
	"Connection timed out",
	"Failed to resolve hostname",
	"No such file or directory",
	"Input/output error",
}

func classifyFFmpegError(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	for _, marker := range unavailableMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: ffmpeg: %v (%s)", ErrSourceUnavailable, err, msg)
		}
	}
	if msg == "" {
		return fmt.Errorf("%w: ffmpeg: %v", ErrExtractionFailed, err)
	}
	return fmt.Errorf("%w: ffmpeg: %v (%s)", ErrExtractionFailed, err, msg)
}

func (e *Extractor) infof(format string, args ...any) {
	if e.log != nil {
		e.log.Infof(format, args...)
	}
}

func (e *Extractor) warnf(format string, args ...any) {
	if e.log != nil {
		e.log.Warnf(format, args...)
	}
}

func (e *Extractor) debugf(format string, args ...any) {
	if e.log != nil {
		e.log.Debugf(format, args...)
	}
}
