package models

// OutcomeKind tags a CachedOutcome.
type OutcomeKind int

const (
	// OutcomeUnknown means the key has not been identified yet.
	OutcomeUnknown OutcomeKind = iota
	// OutcomeNoMatch means recognition ran and found nothing.
	OutcomeNoMatch
	// OutcomeIdentified means recognition found a song.
	OutcomeIdentified
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeIdentified:
		return "identified"
	default:
		return "unknown"
	}
}

// CachedOutcome is the value stored for a cache key.
type CachedOutcome struct {
	Kind OutcomeKind
	Song *Song // set only when Kind == OutcomeIdentified
}

// Hit reports whether the outcome is authoritative.
func (o CachedOutcome) Hit() bool {
	return o.Kind == OutcomeNoMatch || o.Kind == OutcomeIdentified
}

// RecognitionResult is the answer of the recognition service.
// A nil Song means the service returned no matches.
type RecognitionResult struct {
	Song *Song
}

// Matched reports whether the service recognized a song.
func (r RecognitionResult) Matched() bool {
	return r.Song != nil
}
