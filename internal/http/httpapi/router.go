package httpapi

import (
	"net/http"
	"time"

	"github.com/VinilJoseph/VIDEO-GEN/internal/http/handlers"
	"github.com/VinilJoseph/VIDEO-GEN/internal/infra"
	"github.com/VinilJoseph/VIDEO-GEN/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Get("/", app.Index)
	r.Get("/health", app.Health)

	r.Route("/api", func(r chi.Router) {
		// Only the generate route is rate limited; a single generation can
		// hold the upstream model busy for minutes.
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/generate-video", app.GenerateVideo)
		r.Get("/videos", app.ListVideos)
	})

	return r
}
