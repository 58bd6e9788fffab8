package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/timestamp"
	"github.com/aidanngill/MediaUtility/pkg/models"
	"github.com/aidanngill/MediaUtility/pkg/utils"
)

const (
	maxSampleSeconds = 60
	identifyTimeout  = 3 * time.Minute
	extractTimeout   = time.Minute
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service mediautility.Service
	config  *ServerConfig
	log     mediautility.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	TempDir        string
	MaxUploadMB    int
	AllowedOrigins []string
}

func NewServer(service mediautility.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().WithPrefix("http"),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondFailure maps a pipeline error onto a status and a user-facing
// message.
func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("%s failed: %v", op, err)
	} else {
		s.log.Debugf("%s rejected: %v", op, err)
	}
	s.respondError(w, status, mediautility.UserMessage(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mediautility.ErrInvalidLink),
		errors.Is(err, mediautility.ErrOffsetParse),
		errors.Is(err, mediautility.ErrInvalidDurationFormat),
		errors.Is(err, mediautility.ErrPlaylistIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, mediautility.ErrNoMedia):
		return http.StatusNotFound
	case errors.Is(err, mediautility.ErrSourceUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mediautility.ErrMalformedRecognitionResponse):
		return http.StatusBadGateway
	case errors.Is(err, mediautility.ErrNoRecognizer):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func songResponse(song *models.Song) IdentifyResponse {
	if song == nil {
		return IdentifyResponse{Found: false, Message: mediautility.MsgNoSong}
	}
	return IdentifyResponse{Found: true, Song: song}
}

// parseStart accepts plain seconds or a colon-delimited timestamp.
func parseStart(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	seconds, err := timestamp.ToSeconds(raw)
	if err != nil {
		return nil, err
	}
	if seconds < 0 {
		return nil, mediautility.ErrInvalidDurationFormat
	}
	return &seconds, nil
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "MediaUtility API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":       "GET /health",
			"identify":     "POST /api/identify",
			"identifyFile": "POST /api/identify/file",
			"extract":      "POST /api/extract",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	degraded := s.service.CacheDegraded()
	if degraded {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Time:          time.Now().Format(time.RFC3339),
		CacheDegraded: degraded,
	})
}

// handleIdentify handles POST /api/identify
func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), identifyTimeout)
	defer cancel()

	var req IdentifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := mediautility.DefaultFindOptions()
	start, err := parseStart(req.Time)
	if err != nil {
		s.respondFailure(w, "identify", err)
		return
	}
	opts.Start = start
	if req.Duration > 0 {
		opts.Duration = req.Duration
	}
	if req.Index > 0 {
		opts.PlaylistIndex = req.Index
	}
	if req.UseCache != nil {
		opts.UseCache = *req.UseCache
	}

	song, err := s.service.FindSong(ctx, req.URL, opts)
	if err != nil {
		s.respondFailure(w, "identify", err)
		return
	}
	s.respondJSON(w, http.StatusOK, songResponse(song))
}

// handleIdentifyFile handles POST /api/identify/file (multipart upload)
func (s *Server) handleIdentifyFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), identifyTimeout)
	defer cancel()

	limit := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	opts := mediautility.DefaultFindOptions()
	start, err := parseStart(r.FormValue("time"))
	if err != nil {
		s.respondFailure(w, "identify file", err)
		return
	}
	opts.Start = start
	if d := r.FormValue("duration"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 || n > maxSampleSeconds {
			s.respondError(w, http.StatusBadRequest, "duration must be between 1 and 60 seconds")
			return
		}
		opts.Duration = n
	}

	dir, err := utils.MakeTempDir(s.config.TempDir, "upload")
	if err != nil {
		s.log.Errorf("Failed to create upload dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer utils.DeleteDir(dir)

	path := filepath.Join(dir, "input"+filepath.Ext(header.Filename))
	out, err := os.Create(path)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	written, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		s.log.Errorf("Failed to save upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	s.log.Infof("Received upload %s (%s)", header.Filename, humanize.Bytes(uint64(written)))

	song, err := s.service.FindFile(ctx, path, opts)
	if err != nil {
		s.respondFailure(w, "identify file", err)
		return
	}
	s.respondJSON(w, http.StatusOK, songResponse(song))
}

// handleExtract handles POST /api/extract
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), extractTimeout)
	defer cancel()

	var req ExtractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := s.service.Extract(ctx, req.URL, req.Index)
	if err != nil {
		s.respondFailure(w, "extract", err)
		return
	}
	s.respondJSON(w, http.StatusOK, ExtractResponse{
		URL:        ref.StreamURL,
		Extractor:  ref.ExtractorID,
		ID:         ref.ContentID,
		Ext:        ref.RawExt,
		Title:      ref.Title,
		WebpageURL: ref.WebpageURL,
	})
}
