package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/Brownie44l1/digit-sketchpad/internal/canvas"
	"github.com/Brownie44l1/digit-sketchpad/internal/sketchpad"
	"github.com/Brownie44l1/digit-sketchpad/internal/view"
)

//go:embed templates
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	maxUploadBytes  = 10 << 20
	maxPointerBatch = 4096
)

// HealthChecker reports whether the classification backend is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handler struct {
	session  *sketchpad.Session
	backend  string
	upstream HealthChecker
	logger   zerolog.Logger
}

type Option func(*Handler)

// WithUpstream makes /health probe the classifier as well.
func WithUpstream(checker HealthChecker) Option {
	return func(h *Handler) { h.upstream = checker }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func NewHandler(session *sketchpad.Session, backend string, opts ...Option) *Handler {
	h := &Handler{
		session: session,
		backend: backend,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the page, the JSON API and the health check.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(enableCORS)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/pointer", h.Pointer)
		r.Post("/predict", h.Predict)
		r.Post("/predict/image", h.PredictFromImage)
		r.Post("/clear", h.Clear)
		r.Get("/state", h.State)
		r.Get("/view", h.View)
		r.Get("/raster.png", h.Raster)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var result bytes.Buffer
	if err := view.Render(&result, h.session.State()); err != nil {
		h.logger.Error().Err(err).Msg("render view")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, map[string]any{
		"CanvasSize": canvas.Size,
		"Result":     template.HTML(result.String()),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("render page")
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Upstream string `json:"upstream,omitempty"`
	RSSBytes uint64 `json:"rss_bytes,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Backend: h.backend}

	if proc, err := process.NewProcessWithContext(r.Context(), int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfoWithContext(r.Context()); err == nil {
			resp.RSSBytes = mem.RSS
		}
	}

	if h.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.upstream.Health(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("upstream health check failed")
			resp.Upstream = "unreachable"
		} else {
			resp.Upstream = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeEvents reads a JSON array of pointer events. An empty body is an
// empty batch. On failure it writes the response and returns false.
func decodeEvents(w http.ResponseWriter, r *http.Request) ([]sketchpad.PointerEvent, bool) {
	var events []sketchpad.PointerEvent
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&events)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if len(events) > maxPointerBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "too many pointer events")
		return nil, false
	}
	return events, true
}

func (h *Handler) Pointer(w http.ResponseWriter, r *http.Request) {
	events, ok := decodeEvents(w, r)
	if !ok {
		return
	}
	if err := h.session.Apply(events); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Predict classifies the current drawing after applying any pointer events
// sent in the body. Classification failures are part of the returned view
// state, not HTTP errors.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	events, ok := decodeEvents(w, r)
	if !ok {
		return
	}
	state, err := h.session.PredictAfter(r.Context(), events)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image format. Supported: JPEG, PNG")
		return
	}
	h.logger.Info().
		Str("file", header.Filename).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("received image")

	invert := r.FormValue("invert") == "true" || r.FormValue("invert") == "1"
	writeJSON(w, http.StatusOK, h.session.PredictImage(r.Context(), img, invert))
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Clear())
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.State())
}

// View returns the result panel as an HTML fragment.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, h.session.State()); err != nil {
		h.logger.Error().Err(err).Msg("render view")
	}
}

func (h *Handler) Raster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, h.session.Snapshot()); err != nil {
		h.logger.Error().Err(err).Msg("encode raster")
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
