package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/hub"
	"github.com/DoyleJ11/brawlbracket-backend/internal/metrics"
	"github.com/DoyleJ11/brawlbracket-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Hub         *hub.Hub
	Store       TournamentStore // nil disables persistence
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Defaults    Defaults
	CORSOrigins []string
	OutboxSize  int
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", ws.UserHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Public routes
	r.Get("/healthz", Healthz)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.Get("/ws", ws.Handler(d.Hub, ws.Options{
		OutboxSize:     d.OutboxSize,
		OriginPatterns: d.CORSOrigins,
		Logger:         d.Logger,
	}))

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", ListTournaments(d.Hub))
		r.Post("/", CreateTournament(d.Hub, d.Store, d.Defaults, d.Logger))
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/lobbies", Dashboard(d.Hub, d.Logger))
			r.Get("/matches/{number}", LobbySnapshot(d.Hub))
			r.Get("/bracket", BracketDisplay(d.Hub))
			r.Post("/reset", ResetBracket(d.Hub))
			r.Delete("/", RemoveTournament(d.Hub, d.Store, d.Logger))
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
