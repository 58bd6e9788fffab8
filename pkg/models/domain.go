package models

// Song represents a recognized track.
type Song struct {
	Title       string `json:"title"`                  // Track title
	Artist      string `json:"artist"`                 // Performing artist
	Album       string `json:"album,omitempty"`        // Album name (if known)
	AlbumArtURL string `json:"album_art,omitempty"`    // Cover art URL (if known)
	Label       string `json:"label,omitempty"`        // Record label (if known)
	ReleaseYear string `json:"release_year,omitempty"` // Release year (if known)
}

// MediaReference is what the extractor knows about a link.
type MediaReference struct {
	ExtractorID string // Platform identifier, e.g. "youtube"
	ContentID   string // Platform-specific media ID
	StreamURL   string // Directly fetchable media URL (if any)
	RawExt      string // Container extension reported by the extractor
	Title       string // Media title (if any)
	WebpageURL  string // Canonical page URL (if any)
}

// GenericExtractor is the extractor yt-dlp falls back to for direct media
// links. Its content ids are file names, not catalogue ids.
const GenericExtractor = "generic"

// Catalogued reports whether ref names an item in a platform catalogue, so
// its extractor and content id identify the media on their own.
func (r *MediaReference) Catalogued() bool {
	if r == nil || r.ExtractorID == "" || r.ContentID == "" {
		return false
	}
	return r.ExtractorID != GenericExtractor
}

// Source returns the locator the transcoder should read from, falling back
// to the original link when the extractor did not expose a stream URL.
func (r *MediaReference) Source(fallback string) string {
	if r == nil || r.StreamURL == "" {
		return fallback
	}
	return r.StreamURL
}
