package mediautility

import (
	"errors"

	"github.com/aidanngill/MediaUtility/pkg/mediautility/locator"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/recognition"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/sample"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/timestamp"
)

var (
	// ErrInvalidLink is returned before any work when the input is not a URL.
	ErrInvalidLink = errors.New("invalid link")
	// ErrNoMedia is returned by Extract when a post has no fetchable media.
	ErrNoMedia = errors.New("no media found")
	// ErrNoRecognizer is returned when no recognition endpoint is configured.
	ErrNoRecognizer = errors.New("no recognition service configured")

	ErrOffsetParse                  = timestamp.ErrOffsetParse
	ErrInvalidDurationFormat        = timestamp.ErrInvalidDurationFormat
	ErrPlaylistIndexOutOfRange      = locator.ErrPlaylistIndexOutOfRange
	ErrSourceUnavailable            = sample.ErrSourceUnavailable
	ErrExtractionFailed             = sample.ErrExtractionFailed
	ErrMalformedRecognitionResponse = recognition.ErrMalformedRecognitionResponse
)

const (
	MsgInvalidLink = "Please provide a valid link."
	MsgNoSong      = "Sorry, I couldn't find any songs."
	MsgNoMedia     = "Sorry, I couldn't find any media in that post."
)

// UserMessage turns a pipeline error into text for end users. Unexpected
// errors get a generic message.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLink):
		return MsgInvalidLink
	case errors.Is(err, ErrNoMedia):
		return MsgNoMedia
	case errors.Is(err, ErrPlaylistIndexOutOfRange):
		return "That playlist doesn't have an item at that index."
	case errors.Is(err, ErrOffsetParse), errors.Is(err, ErrInvalidDurationFormat):
		return "I couldn't understand the timestamp in that link."
	case errors.Is(err, ErrSourceUnavailable):
		return "I couldn't download that media."
	default:
		return "Something went wrong while processing that media."
	}
}
