// Package recognition sends audio samples to a song recognition service.
package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

// ErrMalformedRecognitionResponse is returned when the service reports a
// match but the payload lacks the fields needed to build a song.
var ErrMalformedRecognitionResponse = errors.New("malformed recognition response")

const (
	DefaultAPIKeyHeader = "X-API-Key"
	formField           = "audio"

	// bodies larger than this are not recognition payloads
	maxResponseBytes = 4 << 20
)

type Logger interface {
	Debugf(format string, args ...any)
}

type Config struct {
	Endpoint     string
	APIKey       string
	APIKeyHeader string        // default X-API-Key
	Timeout      time.Duration // zero leaves the deadline to ctx
	HTTPClient   *http.Client
	Logger       Logger
}

// Client posts samples to an HTTP recognition endpoint.
type Client struct {
	endpoint     string
	apiKey       string
	apiKeyHeader string
	http         *http.Client
	log          Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("recognition endpoint is required")
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		apiKeyHeader: cfg.APIKeyHeader,
		http:         cfg.HTTPClient,
		log:          cfg.Logger,
	}, nil
}

// Recognize uploads the sample at samplePath. A result without a song means
// the service found no match.
func (c *Client) Recognize(ctx context.Context, samplePath string) (models.RecognitionResult, error) {
	body, contentType, err := encodeSample(samplePath)
	if err != nil {
		return models.RecognitionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return models.RecognitionResult{}, fmt.Errorf("building recognition request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return models.RecognitionResult{}, ctx.Err()
		}
		return models.RecognitionResult{}, fmt.Errorf("calling recognition service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.RecognitionResult{}, fmt.Errorf("reading recognition response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RecognitionResult{}, fmt.Errorf("recognition service returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	result, err := decode(raw)
	if err != nil {
		return models.RecognitionResult{}, err
	}
	if c.log != nil {
		c.log.Debugf("Recognition finished in %s (matched: %v)", time.Since(start).Round(time.Millisecond), result.Matched())
	}
	return result, nil
}

func encodeSample(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening sample: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(formField, filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading sample: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
