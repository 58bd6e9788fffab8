package locator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

type fakeRunner struct {
	stdout string
	err    error
	calls  []Request
	// onRun lets a test create files the way a real download would
	onRun func(req Request) error
}

func (f *fakeRunner) Run(_ context.Context, req Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.onRun != nil {
		if err := f.onRun(req); err != nil {
			return "", err
		}
	}
	return f.stdout, f.err
}

func newTestLocator(r Runner) *Locator {
	return New(Config{Runner: r})
}

func TestLocateSingleVideo(t *testing.T) {
	runner := &fakeRunner{stdout: `{
		"_type": "video",
		"id": "y6120QOlsfU",
		"extractor": "youtube",
		"extractor_key": "Youtube",
		"url": "https://rr1.googlevideo.com/videoplayback?id=1",
		"ext": "webm",
		"title": "Darude - Sandstorm",
		"webpage_url": "https://www.youtube.com/watch?v=y6120QOlsfU"
	}`}
	loc := newTestLocator(runner)

	ref, err := loc.Locate(context.Background(), "https://www.youtube.com/watch?v=y6120QOlsfU", 1)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ref == nil {
		t.Fatal("expected a reference")
	}
	if ref.ExtractorID != "youtube" || ref.ContentID != "y6120QOlsfU" {
		t.Errorf("unexpected identity %s/%s", ref.ExtractorID, ref.ContentID)
	}
	if ref.StreamURL != "https://rr1.googlevideo.com/videoplayback?id=1" {
		t.Errorf("unexpected stream URL %q", ref.StreamURL)
	}
	if ref.RawExt != "webm" {
		t.Errorf("unexpected ext %q", ref.RawExt)
	}
	if !ref.Catalogued() {
		t.Error("a youtube video is catalogued")
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one yt-dlp call, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if !call.MetadataOnly {
		t.Error("Locate must not download media")
	}
	if call.Format != DefaultSampleFormat {
		t.Errorf("format = %q, want %q", call.Format, DefaultSampleFormat)
	}
}

func TestLocateFallsBackToExtractorKey(t *testing.T) {
	runner := &fakeRunner{stdout: `{"id":"123","extractor_key":"SoundCloud"}`}

	ref, err := newTestLocator(runner).Locate(context.Background(), "https://soundcloud.com/a/b", 1)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ref.ExtractorID != "soundcloud" {
		t.Errorf("ExtractorID = %q, want soundcloud", ref.ExtractorID)
	}
}

func TestLocateDirectFileIsUncatalogued(t *testing.T) {
	link := "https://cdn.discordapp.com/attachments/1/2/video.mp4"
	runner := &fakeRunner{stdout: `{
		"_type": "video",
		"id": "video",
		"extractor": "generic",
		"extractor_key": "Generic",
		"url": "https://cdn.discordapp.com/attachments/1/2/video.mp4",
		"ext": "mp4"
	}`}

	ref, err := newTestLocator(runner).Locate(context.Background(), link, 1)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ref == nil {
		t.Fatal("direct files still need a reference for their stream URL")
	}
	if ref.Catalogued() {
		t.Errorf("generic reference %s/%s must not count as catalogued", ref.ExtractorID, ref.ContentID)
	}
	if ref.Source("") != link {
		t.Errorf("source = %q, want %q", ref.Source(""), link)
	}
}

func TestLocatePlaylistEntry(t *testing.T) {
	runner := &fakeRunner{stdout: `{
		"_type": "playlist",
		"id": "PL496CFE0819E797DE",
		"extractor": "youtube:tab",
		"entries": [
			{"id": "second", "extractor": "youtube", "url": "https://cdn/2", "playlist_index": 2}
		]
	}`}

	ref, err := newTestLocator(runner).Locate(context.Background(), "https://www.youtube.com/watch?v=QBpF0NTUTnA&list=PL496CFE0819E797DE", 2)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ref.ContentID != "second" || ref.StreamURL != "https://cdn/2" {
		t.Errorf("wrong entry selected: %+v", ref)
	}
	if runner.calls[0].PlaylistIndex != 2 {
		t.Errorf("playlist index not forwarded: %d", runner.calls[0].PlaylistIndex)
	}
}

func TestLocatePlaylistPositionFallback(t *testing.T) {
	runner := &fakeRunner{stdout: `{
		"_type": "playlist",
		"id": "pl",
		"extractor": "soundcloud:set",
		"entries": [
			{"id": "one", "extractor": "soundcloud"},
			{"id": "two", "extractor": "soundcloud"}
		]
	}`}

	ref, err := newTestLocator(runner).Locate(context.Background(), "https://soundcloud.com/a/sets/b", 2)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if ref.ContentID != "two" {
		t.Errorf("ContentID = %q, want two", ref.ContentID)
	}
}

func TestLocatePlaylistIndexOutOfRange(t *testing.T) {
	runner := &fakeRunner{stdout: `{"_type":"playlist","id":"pl","extractor":"youtube:tab","entries":[]}`}
	loc := newTestLocator(runner)

	_, err := loc.Locate(context.Background(), "https://www.youtube.com/playlist?list=pl", 7)
	if !errors.Is(err, ErrPlaylistIndexOutOfRange) {
		t.Errorf("expected ErrPlaylistIndexOutOfRange, got %v", err)
	}

	_, err = loc.Locate(context.Background(), "https://www.youtube.com/playlist?list=pl", -1)
	if !errors.Is(err, ErrPlaylistIndexOutOfRange) {
		t.Errorf("expected ErrPlaylistIndexOutOfRange for negative index, got %v", err)
	}
}

func TestLocateUnsupportedURLIsAbsent(t *testing.T) {
	runner := &fakeRunner{err: errors.New("yt-dlp failed: exit status 1\nstderr: ERROR: Unsupported URL: https://example.com/")}

	ref, err := newTestLocator(runner).Locate(context.Background(), "https://example.com/", 1)
	if err != nil {
		t.Fatalf("unsupported URL must not fail: %v", err)
	}
	if ref != nil {
		t.Errorf("expected nil reference, got %+v", ref)
	}
}

func TestLocateOtherFailuresSurface(t *testing.T) {
	runner := &fakeRunner{err: errors.New("yt-dlp failed: exit status 1\nstderr: ERROR: Video unavailable")}

	if _, err := newTestLocator(runner).Locate(context.Background(), "https://youtu.be/gone", 1); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLocateMalformedJSON(t *testing.T) {
	for _, out := range []string{"not json", `{"extractor":"youtube"}`, `{"id":"x"}`} {
		_, err := newTestLocator(&fakeRunner{stdout: out}).Locate(context.Background(), "https://youtu.be/x", 1)
		if !errors.Is(err, ErrMalformedInfo) {
			t.Errorf("output %q: expected ErrMalformedInfo, got %v", out, err)
		}
	}
}

func TestNeedsDownload(t *testing.T) {
	loc := New(Config{Runner: &fakeRunner{}, DownloadFirst: []string{"TikTok", " instagram "}})

	tests := []struct {
		extractor string
		want      bool
	}{
		{"tiktok", true},
		{"TikTok", true},
		{"instagram", true},
		{"youtube", false},
		{"soundcloud", false},
	}
	for _, tt := range tests {
		if got := loc.NeedsDownload(&models.MediaReference{ExtractorID: tt.extractor}); got != tt.want {
			t.Errorf("NeedsDownload(%s) = %v, want %v", tt.extractor, got, tt.want)
		}
	}

	if loc.NeedsDownload(nil) {
		t.Error("uncatalogued links are never downloaded first")
	}
}

func TestDefaultDownloadFirstList(t *testing.T) {
	loc := New(Config{Runner: &fakeRunner{}})
	if !loc.NeedsDownload(&models.MediaReference{ExtractorID: "tiktok"}) {
		t.Error("tiktok should be on the default download-first list")
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{onRun: func(req Request) error {
		if req.MetadataOnly {
			t.Error("Download must not request metadata-only mode")
		}
		if !strings.HasPrefix(req.Output, dir) {
			t.Errorf("output template %q is outside %q", req.Output, dir)
		}
		return os.WriteFile(filepath.Join(dir, "input.mp4"), []byte("data"), 0o644)
	}}

	path, err := newTestLocator(runner).Download(context.Background(), "https://www.tiktok.com/@a/video/1", 1, dir)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Base(path) != "input.mp4" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestDownloadMissingFile(t *testing.T) {
	_, err := newTestLocator(&fakeRunner{}).Download(context.Background(), "https://www.tiktok.com/@a/video/1", 1, t.TempDir())
	if err == nil {
		t.Fatal("expected an error when yt-dlp produced nothing")
	}
}
