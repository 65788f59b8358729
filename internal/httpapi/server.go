package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/internal/ui"
	"github.com/ankittk/osboard/pkg/models"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// defaultMaxRequestBodyBytes caps request bodies (1 MiB).
const defaultMaxRequestBodyBytes = models.DefaultMaxRequestBytes

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
// Call this for requests that have a body (e.g. POST, PUT, PATCH) before decoding JSON.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (board page served from another origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Board is the scheduling board driven by the API.
type Board interface {
	View() models.BoardView
	Order(id string) (models.BoardOrder, bool)
	Filters() models.Filters
	SetFilters(ctx context.Context, f models.Filters) error
	Load(ctx context.Context) error
	Drop(ctx context.Context, req models.DropRequest) error
	Reset(ctx context.Context, req models.CellRequest) error
	ToggleLock(ctx context.Context, req models.CellRequest) (bool, error)
	SetNote(ctx context.Context, req models.NoteRequest) error
	SetColor(ctx context.Context, req models.ColorRequest) error
	AddWeekComment(ctx context.Context, req models.WeekCommentRequest) error
	Week(w int) (models.WeekView, error)
	FlushConfig(ctx context.Context) error
}

// ActivityLister reads the activity journal.
type ActivityLister interface {
	ListActivity(ctx context.Context, q store.ActivityQuery) ([]models.Activity, error)
}

// ServerOptions configures the HTTP server (listen addr, API key, board, metrics).
type ServerOptions struct {
	Addr           string
	Dev            bool
	APIKey         string         // if set, require X-API-Key header or query api_key
	Board          Board          // required
	Activity       ActivityLister // optional; nil serves an empty journal
	Hub            *SSEHub        // optional; a new hub is created when nil
	MetricsHandler http.Handler   // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool           // if true, wrap handler with otelhttp for request metrics
	UI             bool           // serve the embedded board page at /
}

// App holds the HTTP server, SSE hub and the board it drives.
type App struct {
	Server *http.Server
	Hub    *SSEHub
	Board  Board
}

// BoardUpdate is the SSE event published after every board change.
type BoardUpdate struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// PublishBoardUpdate tells stream subscribers that the board changed.
func PublishBoardUpdate(hub *SSEHub, reason string) {
	if hub == nil {
		return
	}
	hub.PublishJSON(BoardUpdate{Type: "board_update", Reason: reason})
}

// NewApp creates the HTTP app and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	if opts.Board == nil {
		return nil, errBoardRequired
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewSSEHub()
	}
	h := &handlers{board: opts.Board, activity: opts.Activity}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}
	r.Get("/stream", hub.Handler())

	r.Route("/board", func(r chi.Router) {
		r.Get("/", h.view)
		r.Get("/filters", h.getFilters)
		r.Put("/filters", h.putFilters)
		r.Post("/reload", h.reload)
		r.Post("/drop", h.drop)
		r.Post("/reset", h.reset)
		r.Post("/lock", h.lock)
		r.Put("/note", h.note)
		r.Put("/color", h.color)
		r.Post("/week-comment", h.weekComment)
		r.Get("/weeks/{week}", h.week)
		r.Get("/orders/{id}", h.order)
		r.Post("/flush", h.flush)
		r.Get("/export.xlsx", h.exportMonth)
		r.Get("/activity", h.listActivity)
	})

	if opts.UI {
		r.Handle("/*", ui.Handler())
	}

	var handler http.Handler = r
	handler = bodyLimitMiddleware(defaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "osboard")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{Server: srv, Hub: hub, Board: opts.Board}, nil
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
