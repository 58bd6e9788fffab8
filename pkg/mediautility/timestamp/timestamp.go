// Package timestamp resolves sample start offsets from media links.
package timestamp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDurationFormat is returned when a colon-delimited duration
	// has a component that is not an unsigned decimal number.
	ErrInvalidDurationFormat = errors.New("invalid duration format")

	// ErrOffsetParse is returned when a link carries a timestamp that cannot
	// be parsed for its platform.
	ErrOffsetParse = errors.New("unparsable timestamp in link")
)

// seconds, minutes, hours, days
var secondMultipliers = [...]int{1, 60, 3600, 86400}

// ToSeconds converts "SS", "MM:SS", "H:MM:SS" or "D:H:MM:SS" to seconds.
// Components beyond the fourth most significant are ignored.
func ToSeconds(ts string) (int, error) {
	parts := strings.Split(ts, ":")

	total := 0
	for i := 0; i < len(parts) && i < len(secondMultipliers); i++ {
		n, ok := parseUnsigned(parts[len(parts)-1-i])
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, ts)
		}
		total += n * secondMultipliers[i]
	}

	return total, nil
}

// parseUnsigned accepts digits only, so signs never reach an offset.
func parseUnsigned(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders seconds as H:MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// resolver extracts an offset from an already parsed link.
type resolver func(u *url.URL) (int, bool, error)

var resolvers = map[string]resolver{
	"youtube":    fromYouTube,
	"soundcloud": fromSoundCloud,
}

// FromExtractor returns the start offset encoded in rawURL for the given
// extractor. ok is false when the link carries no timestamp or the extractor
// has no timestamp convention. A timestamp that is present but malformed is
// an error wrapping ErrOffsetParse.
func FromExtractor(rawURL, extractorID string) (seconds int, ok bool, err error) {
	fn, found := resolvers[strings.ToLower(extractorID)]
	if !found {
		return 0, false, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrOffsetParse, err)
	}

	return fn(u)
}

// YouTube keeps the offset in ?t=, with or without a trailing "s".
func fromYouTube(u *url.URL) (int, bool, error) {
	values, present := u.Query()["t"]
	if !present || len(values) == 0 {
		return 0, false, nil
	}

	n, ok := parseUnsigned(strings.TrimSuffix(strings.TrimSpace(values[0]), "s"))
	if !ok {
		return 0, false, fmt.Errorf("%w: youtube t=%q", ErrOffsetParse, values[0])
	}
	return n, true, nil
}

// SoundCloud keeps the offset in the fragment, e.g. #t=1%3A32.
func fromSoundCloud(u *url.URL) (int, bool, error) {
	fragment := u.EscapedFragment()
	if fragment == "" {
		return 0, false, nil
	}

	segments := strings.Split(fragment, "=")
	if len(segments) < 2 || !strings.HasSuffix(segments[len(segments)-2], "t") {
		return 0, false, nil
	}

	value, err := url.PathUnescape(segments[len(segments)-1])
	if err != nil {
		return 0, false, fmt.Errorf("%w: soundcloud fragment %q", ErrOffsetParse, fragment)
	}

	n, err := ToSeconds(value)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrOffsetParse, err)
	}
	return n, true, nil
}
