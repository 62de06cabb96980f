package routes

import (
	"log/slog"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/song-bracket/docs"
	"github.com/Dosada05/song-bracket/handlers"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/middleware"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Songs   *handlers.SongHandler
	Classes *handlers.ClassHandler
	Bracket *handlers.BracketHandler
	Admin   *handlers.BracketAdminHandler
	Matches *handlers.MatchHandler
	Votes   *handlers.VoteHandler
	Views   *handlers.ViewHandler
	Health  *handlers.HealthHandler
}

type Options struct {
	Sessions       middleware.SessionValidator
	VoteLimiter    middleware.Limiter
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	RequestTimeout time.Duration
	SentryEnabled  bool
	// TrustProxy включает chi RealIP: X-Forwarded-For и X-Real-IP
	// принимаются только за доверенным прокси.
	TrustProxy bool
	Logger     *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.WithLogger(logger))
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	if opts.SentryEnabled {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Health)
	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/api/v1", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/brackets/current", h.Views.CurrentBracket)
		r.Get("/voting", h.Views.Voting)
		r.Get("/classes", h.Classes.ListActiveClasses)
		r.Get("/matches/{matchID}/tally", h.Matches.MatchTally)
		r.Delete("/votes", h.Votes.RetractVote)
		r.With(middleware.RateLimit(opts.VoteLimiter, logger)).Post("/votes", h.Votes.SubmitVote)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)

			// Только для администратора
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(opts.Sessions))

				r.Route("/songs", func(r chi.Router) {
					r.Get("/", h.Songs.ListSongs)
					r.Post("/", h.Songs.CreateSong)
					r.Patch("/{songID}", h.Songs.UpdateSong)
					r.Delete("/{songID}", h.Songs.RetireSong)
					r.Post("/{songID}/restore", h.Songs.RestoreSong)
					r.Post("/{songID}/move", h.Songs.MoveSong)
				})

				r.Route("/classes", func(r chi.Router) {
					r.Get("/", h.Classes.ListClasses)
					r.Post("/", h.Classes.CreateClass)
					r.Patch("/{classID}", h.Classes.RenameClass)
					r.Delete("/{classID}", h.Classes.RetireClass)
					r.Post("/{classID}/restore", h.Classes.RestoreClass)
					r.Post("/{classID}/move", h.Classes.MoveClass)
				})

				r.Post("/bracket/generate", h.Bracket.GenerateBracket)
				r.Delete("/bracket", h.Bracket.DeleteBracket)

				r.Route("/matches", func(r chi.Router) {
					r.Get("/", h.Matches.ListMatches)
					r.Post("/{matchID}/open", h.Matches.OpenMatch)
					r.Post("/{matchID}/resolve", h.Matches.ResolveMatch)
					r.Post("/{matchID}/unopen", h.Matches.UnopenMatch)
					r.Get("/{matchID}/votes", h.Matches.ListMatchVotes)
					r.Delete("/{matchID}/votes", h.Matches.ClearMatchVotes)
				})

				r.Patch("/votes/{voteID}", h.Votes.OverrideVote)

				r.Route("/brackets", func(r chi.Router) {
					r.Get("/", h.Admin.ListBrackets)
					r.Post("/", h.Admin.CreateBracket)
					r.Post("/migrate", h.Admin.MigrateLegacy)
					r.Post("/export", h.Bracket.ExportBracket)
					r.Post("/{bracketID}/activate", h.Admin.ActivateBracket)
				})
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
