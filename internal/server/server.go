// Package server exposes the emoji pipeline over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
	"github.com/StrongerSoftworks/emoji-tiler/internal/output"
)

// DefaultMaxUploadBytes bounds the request body of an emoji upload.
const DefaultMaxUploadBytes = imagecodec.MaxImageBytes

type Server struct {
	startTime time.Time
	version   string

	// Options are the defaults for every request. Query parameters override
	// mode, sizes and tile size.
	Options imagetiler.Options
	// MaxUploadBytes bounds the uploaded image.
	MaxUploadBytes int64
}

func NewServer(version string) *Server {
	return &Server{
		startTime:      time.Now(),
		version:        version,
		Options:        imagetiler.DefaultOptions(),
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestId string `json:"request_id,omitempty"`
}

// Router returns the API handler with its middleware stack.
func (s *Server) Router(timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.GetHealth)
		r.Post("/emoji", s.CreateEmoji)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	return r
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding health response", "error", err)
	}
}

// CreateEmoji tiles the uploaded image and answers with a zip of the output
// layout.
func (s *Server) CreateEmoji(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	query := r.URL.Query()

	name := query.Get("name")
	if err := output.ValidateName(name); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_NAME", err.Error(), requestID)
		return
	}

	options, err := s.requestOptions(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	img, format, err := imagecodec.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("image exceeds %d bytes", tooLarge.Limit), requestID)
			return
		}
		s.writeErrorResponse(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", err.Error(), requestID)
		return
	}

	slog.Info("Processing upload", "name", name, "format", format, "mode", options.Mode, "requestId", requestID)
	mosaic, err := imagetiler.MakeImageTiles(r.Context(), img, options)
	if err != nil {
		s.handleTilingError(w, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := output.WriteZip(&buf, name, mosaic, imagecodec.FormatFor(format)); err != nil {
		s.handleTilingError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Error writing response", "error", err, "requestId", requestID)
	}
}

func (s *Server) requestOptions(r *http.Request) (imagetiler.Options, error) {
	query := r.URL.Query()
	options := s.Options

	if query.Has("mode") {
		mode, err := imagetiler.ParseMode(query.Get("mode"))
		if err != nil {
			return options, err
		}
		options.Mode = mode
	}

	if query.Has("sizes") {
		sizes, err := imagetiler.ParseSizes(query["sizes"])
		if err != nil {
			return options, err
		}
		options.Sizes = sizes
	}

	if query.Has("tile_size") {
		tileSize, err := strconv.Atoi(query.Get("tile_size"))
		if err != nil || tileSize <= 0 {
			return options, fmt.Errorf("tile_size must be a positive integer, got %q", query.Get("tile_size"))
		}
		options.TileSize = tileSize
	}
	return options, nil
}

func (s *Server) handleTilingError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, imagetiler.ErrInvalidSize), errors.Is(err, imagetiler.ErrInvalidRatio):
		s.writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, imagetiler.ErrTooSmall):
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, "IMAGE_TOO_SMALL", err.Error(), requestID)
	case errors.Is(err, imagetiler.ErrTilingFailed):
		slog.Error("Tiling failed", "error", err, "requestId", requestID)
		s.writeErrorResponse(w, http.StatusInternalServerError, "TILING_FAILED", err.Error(), requestID)
	default:
		slog.Error("Request failed", "error", err, "requestId", requestID)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", requestID)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message, requestID string) {
	response := ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
