// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP: PDF upload, static
// hosting of converted output, and a health check.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfblocks/internal/intake"
	"github.com/pdiddy/pdfblocks/internal/pipeline"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

const (
	// uploadField is the multipart form field carrying the PDF.
	uploadField = "pdf"

	// multipartMemory is the part of a multipart body buffered in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20

	defaultShutdownTimeout = 15 * time.Second
)

// Runner runs one conversion job. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, uploadPath string) ([]types.Block, error)
}

// Server handles HTTP requests for the pipeline.
type Server struct {
	cfg    types.ServerConfig
	dirs   types.DirsConfig
	store  *intake.Store
	runner Runner
	logger zerolog.Logger
}

// New builds a Server. Uploads are stored under dirs.Uploads and converted
// files are served from dirs.Outputs.
func New(cfg types.ServerConfig, dirs types.DirsConfig, runner Runner, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		dirs:   dirs,
		store:  intake.NewStore(dirs.Uploads, cfg.MaxUploadBytes),
		runner: runner,
		logger: logger.With().Str("component", "server").Logger(),
	}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/upload", s.handleUpload)

	outputs := http.StripPrefix("/outputs/", http.FileServer(filesOnly{http.Dir(s.dirs.Outputs)}))
	r.Handle("/outputs/*", outputs)

	return r
}

// handleUpload stores the PDF from the "pdf" form field, runs the pipeline
// on it and responds with {"blocks": [...]}.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With().Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()

	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.store.MaxBytes+multipartMemory)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeIntakeError(w, &intake.IntakeError{Kind: intake.KindTooLarge, Msg: "file exceeds the upload limit"})
			return
		}
		s.writeIntakeError(w, &intake.IntakeError{Kind: intake.KindMissingFile, Msg: "no PDF uploaded"})
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	path, err := s.store.Save(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if ie, ok := intake.IsIntakeError(err); ok {
			s.writeIntakeError(w, ie)
			return
		}
		log.Error().Err(err).Msg("storing upload")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "upload failed", Reason: pipeline.ReasonInternal})
		return
	}
	log.Info().Str("file", header.Filename).Str("stored", path).Int64("size", header.Size).Msg("upload stored")

	blocks, err := s.runner.Run(r.Context(), path)
	if err != nil {
		log.Error().Err(err).Msg("conversion failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "conversion failed", Reason: pipeline.Reason(err)})
		return
	}

	writeJSON(w, http.StatusOK, types.NewResponse(blocks))
}

// filesOnly serves regular files and reports directories as missing, so
// the outputs of other jobs cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (s *Server) writeIntakeError(w http.ResponseWriter, ie *intake.IntakeError) {
	status := http.StatusBadRequest
	switch ie.Kind {
	case intake.KindTooLarge:
		status = http.StatusRequestEntityTooLarge
	case intake.KindUnsupportedType:
		status = http.StatusUnsupportedMediaType
	}
	writeJSON(w, status, errorBody{Error: ie.Msg, Reason: string(ie.Kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// cors allows cross-origin requests from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutdown requested")
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("graceful shutdown failed")
		return srv.Close()
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
