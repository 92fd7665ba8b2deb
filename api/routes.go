package api

import (
	"context"
	"net/http"
	"time"

	"smart-notes/handlers"
	"smart-notes/metrics"
	appmw "smart-notes/middleware"
	"smart-notes/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	notesBasePath = "/notes"
	paramID       = "id"
)

const healthCheckTimeout = 2 * time.Second

const (
	msgRouteNotFound    = "Route not found"
	msgMethodNotAllowed = "Method not allowed"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
}

func SetupRoutes(
	authHandler *handlers.AuthHandler,
	noteHandler *handlers.NoteHandler,
	verifier appmw.TokenVerifier,
	store Pinger,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	corsOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(appmw.CORS(corsOrigin))

	// Set before any route so mounted subrouters inherit them
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Post("/signup", webutil.MakeHandler(logger, authHandler.Signup))
	r.Post("/signin", webutil.MakeHandler(logger, authHandler.Signin))

	r.Get("/healthz", handleHealthCheck(store, logger))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth(verifier, logger))
		configureNoteRoutes(r, noteHandler, logger)
	})

	return r
}

func configureNoteRoutes(r chi.Router, handler *handlers.NoteHandler, logger logrus.FieldLogger) {
	r.Route(notesBasePath, func(r chi.Router) {
		r.Post("/create", webutil.MakeHandler(logger, handler.CreateNote))
		r.Get("/bulk", webutil.MakeHandler(logger, handler.ListNotes))
		r.Route("/{"+paramID+"}", func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(logger, handler.GetNote))
			r.Put("/", webutil.MakeHandler(logger, handler.UpdateNote))
			r.Delete("/", webutil.MakeHandler(logger, handler.DeleteNote))
		})
	})
}

func handleHealthCheck(store Pinger, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := store.PingContext(ctx); err != nil {
			logger.WithError(err).Error("health check: store unreachable")
			webutil.RespondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		webutil.RespondWithJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithMessage(w, http.StatusNotFound, msgRouteNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	webutil.RespondWithMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
