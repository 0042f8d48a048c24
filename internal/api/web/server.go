package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

const (
	sessionCookie     = "wall_inspector_session"
	imageField        = "image"
	defaultMaxBytes   = 20 << 20
	defaultJournalMax = 20
	journalLimitCap   = 100
)

// HealthChecker проверка доступности детектора
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConnectionStatus состояние подключения к брокеру событий
type ConnectionStatus interface {
	IsConnected() bool
}

// Options зависимости веб-сервера; Metrics, Health и Events необязательны
type Options struct {
	Inspections *app.InspectionService
	Artifacts   port.ArtifactStore
	Metrics     http.Handler
	Health      HealthChecker
	Events      ConnectionStatus
	MaxBytes    int64
	Logger      *slog.Logger
}

// Server веб-интерфейс: страница загрузки, JSON API и скачивание результата
type Server struct {
	inspections *app.InspectionService
	artifacts   port.ArtifactStore
	metrics     http.Handler
	health      HealthChecker
	events      ConnectionStatus
	profile     *entity.Profile
	maxBytes    int64
	logger      *slog.Logger
	httpServer  *http.Server
}

func NewServer(opts Options) *Server {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		inspections: opts.Inspections,
		artifacts:   opts.Artifacts,
		metrics:     opts.Metrics,
		health:      opts.Health,
		events:      opts.Events,
		profile:     opts.Inspections.Profile(),
		maxBytes:    opts.MaxBytes,
		logger:      opts.Logger.With("component", "web"),
	}
}

// Handler возвращает маршруты сервера
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /inspect", s.handleInspectPage)
	mux.HandleFunc("POST /api/inspect", s.handleInspectAPI)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.logRequests(mux)
}

// Start блокирует до остановки сервера
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", slog.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.sessionID(w, r)
	s.renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) handleInspectPage(w http.ResponseWriter, r *http.Request) {
	model, status, err := s.inspect(w, r)
	if err != nil {
		s.renderPage(w, status, pageData{Error: s.errorMessage(err)})
		return
	}
	s.renderPage(w, http.StatusOK, pageData{Result: model})
}

type inspectResponse struct {
	*app.RenderModel
	DownloadURL string `json:"download_url,omitempty"`
}

func (s *Server) handleInspectAPI(w http.ResponseWriter, r *http.Request) {
	model, status, err := s.inspect(w, r)
	if err != nil {
		writeJSON(w, status, map[string]string{
			"error":   err.Error(),
			"message": s.errorMessage(err),
		})
		return
	}

	resp := inspectResponse{RenderModel: model}
	if model.HasDownload() {
		resp.DownloadURL = "/download"
	}
	writeJSON(w, http.StatusOK, resp)
}

// inspect читает файл из формы и запускает проверку в рамках сессии браузера
func (s *Server) inspect(w http.ResponseWriter, r *http.Request) (*app.RenderModel, int, error) {
	sessionID := s.sessionID(w, r)

	if r.ContentLength > s.maxBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: upload exceeds %d bytes", entity.ErrInvalidImage, s.maxBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: upload exceeds %d bytes", entity.ErrInvalidImage, s.maxBytes)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("%w: missing %q field", entity.ErrInvalidImage, imageField)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}

	model, err := s.inspections.Inspect(r.Context(), sessionID, app.UploadRequest{Filename: header.Filename, Data: data})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "inspection failed",
				slog.String("session", sessionID),
				slog.Any("error", xerrors.New(err)),
			)
		}
		return nil, status, err
	}

	return model, http.StatusOK, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := s.artifacts.OpenOutput(r.Context())
	if errors.Is(err, entity.ErrNoArtifact) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to open output", slog.Any("error", xerrors.New(err)))
		http.Error(w, "failed to read output", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", app.MIMEJPEG)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.profile.DownloadName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalMax
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, journalLimitCap)
	}

	records, err := s.inspections.History(r.Context(), "", limit)
	if errors.Is(err, app.ErrJournalDisabled) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to read journal", slog.Any("error", xerrors.New(err)))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read journal"})
		return
	}
	if records == nil {
		records = []entity.InspectionRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"inspections": records})
}

// handleHealth: недоступный детектор делает сервис degraded, брокер событий только отображается
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	payload := map[string]string{"status": "ok", "detector": "ok"}

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["detector"] = err.Error()
		}
	}

	switch {
	case s.events == nil:
		payload["nats"] = "disabled"
	case s.events.IsConnected():
		payload["nats"] = "connected"
	default:
		payload["nats"] = "disconnected"
	}

	writeJSON(w, status, payload)
}

// sessionID берёт сессию из cookie или создаёт новую
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return "web:" + id.String()
		}
	}

	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return "web:" + id.String()
}

func (s *Server) errorMessage(err error) string {
	text := s.profile.Text
	switch {
	case errors.Is(err, entity.ErrUnsupportedFormat):
		return text.Unsupported
	case errors.Is(err, entity.ErrInvalidImage):
		return text.InvalidImage
	case errors.Is(err, entity.ErrSessionBusy):
		return text.Busy
	default:
		return text.DetectorFailed
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, entity.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, entity.ErrDetectorFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(started)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
