package recognition

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sandstorm = `{
	"matches": [{"id": "1"}],
	"track": {
		"title": "Sandstorm",
		"subtitle": "Darude",
		"images": {"background": "https://img/bg.jpg", "coverart": "https://img/cover.jpg"},
		"sections": [
			{"type": "LYRICS", "metadata": [{"title": "Album", "text": "wrong"}]},
			{"type": "SONG", "metadata": [
				{"title": "Album", "text": "Before the Storm"},
				{"title": "Label", "text": "Neo"},
				{"title": "Released", "text": "nope"},
				{"title": "Release", "text": "1999"}
			]}
		]
	}
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{Endpoint: srv.URL}
	for _, o := range opts {
		o(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestRecognizeMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("missing audio field: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "RIFF....WAVE" || hdr.Filename != "sample.wav" {
			t.Errorf("unexpected upload %q (%s)", data, hdr.Filename)
		}
		io.WriteString(w, sandstorm)
	})

	res, err := c.Recognize(context.Background(), writeSample(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !res.Matched() {
		t.Fatal("expected a match")
	}

	s := res.Song
	if s.Title != "Sandstorm" || s.Artist != "Darude" {
		t.Errorf("title/artist = %q/%q", s.Title, s.Artist)
	}
	if s.Album != "Before the Storm" || s.Label != "Neo" || s.ReleaseYear != "1999" {
		t.Errorf("section fields = %q/%q/%q", s.Album, s.Label, s.ReleaseYear)
	}
	if s.AlbumArtURL != "https://img/cover.jpg" {
		t.Errorf("album art = %q, want the coverart image", s.AlbumArtURL)
	}
}

func TestRecognizeNoMatch(t *testing.T) {
	for _, body := range []string{`{"matches": []}`, `{"matches": [], "track": {"title": "x", "subtitle": "y"}}`, `{}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		res, err := c.Recognize(context.Background(), writeSample(t))
		if err != nil {
			t.Fatalf("body %s: unexpected error %v", body, err)
		}
		if res.Matched() {
			t.Errorf("body %s: expected no match", body)
		}
	}
}

func TestRecognizeMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"matches": [{}]}`,
		`{"matches": [{}], "track": {"subtitle": "Darude"}}`,
		`{"matches": [{}], "track": {"title": "Sandstorm"}}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		if _, err := c.Recognize(context.Background(), writeSample(t)); !errors.Is(err, ErrMalformedRecognitionResponse) {
			t.Errorf("body %s: expected ErrMalformedRecognitionResponse, got %v", body, err)
		}
	}
}

func TestRecognizeOptionalFieldsAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"matches":[{}],"track":{"title":"T","subtitle":"A"}}`)
	})
	res, err := c.Recognize(context.Background(), writeSample(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if s := res.Song; s.Album != "" || s.AlbumArtURL != "" || s.Label != "" || s.ReleaseYear != "" {
		t.Errorf("expected empty optional fields, got %+v", s)
	}
}

func TestAlbumArtPreference(t *testing.T) {
	tr := &track{Images: map[string]string{"background": "bg", "coverart": "c", "coverarthq": "hq"}}
	if got := tr.albumArt(); got != "hq" {
		t.Errorf("albumArt = %q, want hq", got)
	}
	tr.Images = map[string]string{"background": "bg"}
	if got := tr.albumArt(); got != "bg" {
		t.Errorf("albumArt = %q, want bg", got)
	}
}

func TestRecognizeHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	_, err := c.Recognize(context.Background(), writeSample(t))
	if err == nil {
		t.Fatal("expected an error for a non-2xx status")
	}
	if errors.Is(err, ErrMalformedRecognitionResponse) {
		t.Error("status errors are not malformed responses")
	}
}

func TestRecognizeSendsAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-RapidAPI-Key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		io.WriteString(w, `{"matches":[]}`)
	}, func(cfg *Config) {
		cfg.APIKey = "secret"
		cfg.APIKeyHeader = "X-RapidAPI-Key"
	})
	if _, err := c.Recognize(context.Background(), writeSample(t)); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
}

func TestRecognizeCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Recognize(ctx, writeSample(t)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestRecognizeMissingSample(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error without an endpoint")
	}
}
