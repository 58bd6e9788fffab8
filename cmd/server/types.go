package main

import (
	"errors"
	"strings"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

// IdentifyRequest is the request body for POST /api/identify
type IdentifyRequest struct {
	URL string `json:"url"`
	// Time is the sample start, either seconds or H:MM:SS. Empty means
	// read it from the link.
	Time     string `json:"time,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Index    int    `json:"index,omitempty"`
	// UseCache defaults to true when omitted
	UseCache *bool `json:"use_cache,omitempty"`
}

func (r *IdentifyRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	if r.Duration < 0 || r.Duration > maxSampleSeconds {
		return errors.New("duration must be between 1 and 60 seconds")
	}
	if r.Index < 0 {
		return errors.New("index must be positive")
	}
	return nil
}

// ExtractRequest is the request body for POST /api/extract
type ExtractRequest struct {
	URL   string `json:"url"`
	Index int    `json:"index,omitempty"`
}

func (r *ExtractRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}

// IdentifyResponse is returned by both identify endpoints. Song is nil when
// nothing was recognized.
type IdentifyResponse struct {
	Found   bool         `json:"found"`
	Song    *models.Song `json:"song,omitempty"`
	Message string       `json:"message,omitempty"`
}

type ExtractResponse struct {
	URL        string `json:"url"`
	Extractor  string `json:"extractor"`
	ID         string `json:"id"`
	Ext        string `json:"ext,omitempty"`
	Title      string `json:"title,omitempty"`
	WebpageURL string `json:"webpage_url,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Time          string `json:"time"`
	CacheDegraded bool   `json:"cache_degraded"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
