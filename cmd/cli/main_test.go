package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidanngill/MediaUtility/internal/config"
	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility"
	"github.com/aidanngill/MediaUtility/pkg/models"
)

type fakeService struct {
	song *models.Song
	ref  *models.MediaReference
	err  error

	findURL  string
	findFile string
	opts     mediautility.FindOptions
}

func (f *fakeService) FindSong(_ context.Context, rawURL string, opts mediautility.FindOptions) (*models.Song, error) {
	f.findURL, f.opts = rawURL, opts
	return f.song, f.err
}

func (f *fakeService) FindFile(_ context.Context, path string, opts mediautility.FindOptions) (*models.Song, error) {
	f.findFile, f.opts = path, opts
	return f.song, f.err
}

func (f *fakeService) Extract(context.Context, string, int) (*models.MediaReference, error) {
	return f.ref, f.err
}

func (f *fakeService) CacheDegraded() bool { return false }
func (f *fakeService) Close() error        { return nil }

func run(t *testing.T, svc *fakeService, args ...string) (string, string, error) {
	t.Helper()
	for _, k := range []string{"REDIS_HOST", "MEDIAUTILITY_RECOGNITION_URL", "MEDIAUTILITY_TEMP_DIR", "LOG_LEVEL", "PORT"} {
		t.Setenv(k, "")
	}

	ctx := &cliContext{newService: func(*config.Config, *logger.Logger) (mediautility.Service, error) {
		return svc, nil
	}}
	root := newRootCommand(ctx)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestIdentifyCommand(t *testing.T) {
	svc := &fakeService{song: &models.Song{Title: "Sandstorm", Artist: "Darude", ReleaseYear: "1999"}}
	out, _, err := run(t, svc, "identify", "https://youtu.be/y6120QOlsfU", "--time", "1:30", "--index", "2", "--no-cache")
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	for _, want := range []string{"Sandstorm", "Darude", "1999"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Album") {
		t.Error("empty album should not be printed")
	}
	if svc.opts.Start == nil || *svc.opts.Start != 90 || svc.opts.PlaylistIndex != 2 || svc.opts.UseCache {
		t.Errorf("unexpected options %+v", svc.opts)
	}
}

func TestIdentifyNoSong(t *testing.T) {
	out, _, err := run(t, &fakeService{}, "identify", "https://youtu.be/x")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, mediautility.MsgNoSong) {
		t.Errorf("output = %q", out)
	}
}

func TestIdentifyInvalidLink(t *testing.T) {
	_, stderr, err := run(t, &fakeService{err: mediautility.ErrInvalidLink}, "identify", "invalid, this is a string")
	if !errors.Is(err, mediautility.ErrInvalidLink) {
		t.Fatalf("expected ErrInvalidLink, got %v", err)
	}
	if !strings.Contains(stderr, mediautility.MsgInvalidLink) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestIdentifyBadTime(t *testing.T) {
	if _, _, err := run(t, &fakeService{}, "identify", "https://youtu.be/x", "--time", "soon"); err == nil {
		t.Fatal("expected an error for an unparsable --time")
	}
}

func TestIdentifyLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := &fakeService{}
	if _, _, err := run(t, svc, "identify", path); err != nil {
		t.Fatal(err)
	}
	if svc.findFile != path || svc.findURL != "" {
		t.Errorf("local file not routed to FindFile: file=%q url=%q", svc.findFile, svc.findURL)
	}
}

func TestExtractCommand(t *testing.T) {
	svc := &fakeService{ref: &models.MediaReference{ExtractorID: "tiktok", StreamURL: "https://cdn/1.mp4", Title: "clip"}}
	out, stderr, err := run(t, svc, "extract", "https://www.tiktok.com/@a/video/1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "https://cdn/1.mp4" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(stderr, "clip") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestConfigInit(t *testing.T) {
	out, _, err := run(t, &fakeService{}, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[recognition]") {
		t.Errorf("sample config not printed:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "cfg", "config.toml")
	if _, _, err := run(t, &fakeService{}, "config", "init", "--path", path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("sample not written: %v", err)
	}
}
