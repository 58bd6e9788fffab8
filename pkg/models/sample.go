package models

// DefaultSampleSeconds is the clip length sent to recognition.
const DefaultSampleSeconds = 15

// SampleRequest describes the clip to cut out of a media source.
type SampleRequest struct {
	Link            string          // Link as given by the caller
	Source          string          // Remote URL or local path to read from
	StartSeconds    int             // Offset into the source, >= 0
	DurationSeconds int             // Clip length, > 0
	PlaylistIndex   int             // 1-based entry for collections
	Reference       *MediaReference // nil for uncatalogued sources
}
