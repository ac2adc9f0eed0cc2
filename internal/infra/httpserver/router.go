package httpserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalyses "github.com/innerantelope/predictive-maintenance/internal/application/analyses"
	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
	"github.com/innerantelope/predictive-maintenance/internal/middleware"
)

const (
	msgNoFile      = "No image file provided"
	msgSaveFailed  = "Failed to save analysis"
	msgFetchFailed = "Failed to fetch analyses"
)

// Options tunes the router; zero values fall back to defaults.
type Options struct {
	AllowedOrigins []string
	Upload         middleware.UploadOptions
	Readiness      map[string]middleware.HealthChecker
}

type Router struct {
	svc *appanalyses.Service
}

func NewRouter(svc *appanalyses.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.RequestID, middleware.LoggingMiddleware, middleware.MetricsMiddleware)

	uploadOpts := opts.Upload
	uploadOpts.Field = domain.FieldImage
	uploadOpts.InternalMessage = msgSaveFailed

	mux.Route("/api", func(rt chi.Router) {
		rt.With(middleware.SingleFile(svc.Files, uploadOpts)).
			Post("/analyses", r.wrap(r.handleCreate, msgSaveFailed))
		rt.Get("/analyses", r.wrap(r.handleList, msgFetchFailed))
		rt.Get("/health", middleware.HealthHandler(svc.Clock.Now))
		rt.Get("/ready", middleware.ReadinessHandler(svc.Clock.Now, opts.Readiness))
		rt.Get("/metrics", middleware.MetricsHandler)
	})

	static := http.StripPrefix("/uploads", Uploads(svc.Files.Dir()))
	mux.Method(http.MethodGet, "/uploads/*", static)
	mux.Method(http.MethodHead, "/uploads/*", static)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors to JSON responses. Anything that is not a
// client error, including a panic, becomes a 500 carrying fallback.
func (r *Router) wrap(h handlerFunc, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("request_id=%s %s: panic: %v", middleware.GetRequestID(req.Context()), fallback, rec)
				middleware.WriteError(w, http.StatusInternalServerError, fallback)
			}
		}()

		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNoFile):
				middleware.WriteError(w, http.StatusBadRequest, msgNoFile)
				return
			case errors.Is(err, middleware.ErrResponseStarted):
				log.Printf("request_id=%s write response: %v", middleware.GetRequestID(req.Context()), err)
				return
			}
			log.Printf("request_id=%s %s: %v", middleware.GetRequestID(req.Context()), fallback, err)
			middleware.WriteError(w, http.StatusInternalServerError, fallback)
		}
	}
}

// POST /api/analyses
// multipart: image (file), topPrediction, topConfidence, predictions
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	up := middleware.UploadFromContext(ctx)
	if up == nil || up.File == nil {
		return domain.ErrNoFile
	}

	// the image only stays on disk if the record reaches the client
	kept := false
	defer func() {
		if !kept {
			r.svc.Discard(ctx, up.File.Name)
		}
	}()

	rec, err := r.svc.Record(ctx, appanalyses.RecordCommand{File: *up.File, Fields: up.Fields})
	if err != nil {
		return fmt.Errorf("record analysis: %w", err)
	}
	if err := middleware.WriteJSON(w, http.StatusOK, rec); err != nil {
		if !errors.Is(err, middleware.ErrResponseStarted) {
			return fmt.Errorf("encode analysis: %w", err)
		}
		// the client already has a 200 and may hold part of the record
		log.Printf("request_id=%s write analysis: %v", middleware.GetRequestID(ctx), err)
	}
	kept = true

	log.Printf("request_id=%s machine analysis saved: id=%d image=%s top_prediction=%q",
		middleware.GetRequestID(ctx), rec.ID, rec.ImagePath, middleware.SanitizeString(deref(rec.TopPrediction)))
	return nil
}

// GET /api/analyses
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.List(req.Context())
	if err != nil {
		return err
	}
	return middleware.WriteJSON(w, http.StatusOK, list)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
