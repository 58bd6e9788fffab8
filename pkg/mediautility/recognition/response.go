package recognition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

type response struct {
	Matches []json.RawMessage `json:"matches"`
	Track   *track            `json:"track"`
}

type track struct {
	Title    *string           `json:"title"`
	Subtitle *string           `json:"subtitle"`
	Images   map[string]string `json:"images"`
	Sections []section         `json:"sections"`
}

type section struct {
	Type     string     `json:"type"`
	Metadata []metadata `json:"metadata"`
}

type metadata struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// cover images in order of preference
var artKeys = []string{"coverarthq", "coverart", "background"}

func decode(raw []byte) (models.RecognitionResult, error) {
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.RecognitionResult{}, fmt.Errorf("%w: %v", ErrMalformedRecognitionResponse, err)
	}
	if len(resp.Matches) == 0 {
		return models.RecognitionResult{}, nil
	}

	t := resp.Track
	if t == nil || t.Title == nil || t.Subtitle == nil {
		return models.RecognitionResult{}, fmt.Errorf("%w: match without track title or artist", ErrMalformedRecognitionResponse)
	}

	return models.RecognitionResult{Song: &models.Song{
		Title:       *t.Title,
		Artist:      *t.Subtitle,
		Album:       t.songField("Album"),
		AlbumArtURL: t.albumArt(),
		Label:       t.songField("Label"),
		ReleaseYear: t.songField("Release"),
	}}, nil
}

func (t *track) albumArt() string {
	for _, k := range artKeys {
		if v := strings.TrimSpace(t.Images[k]); v != "" {
			return v
		}
	}
	return ""
}

// songField returns the text of the first SONG section entry titled key.
func (t *track) songField(key string) string {
	for _, s := range t.Sections {
		if s.Type != "SONG" {
			continue
		}
		for _, m := range s.Metadata {
			if m.Title == key {
				return m.Text
			}
		}
	}
	return ""
}
