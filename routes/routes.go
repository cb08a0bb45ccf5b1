package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/tilewise/scrabble-director/handlers"
	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/models"
)

// SetupRoutes mounts the full HTTP API. Read endpoints are public; anything
// that mutates a tournament requires an authenticated director.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	playerHandler *handlers.PlayerHandler,
	matchHandler *handlers.MatchHandler,
	ruleHandler *handlers.RuleHandler,
	standingsHandler *handlers.StandingsHandler,
	pairingHandler *handlers.PairingHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	directorOnly := middleware.Authorize(
		string(models.RoleDirector), string(models.RoleAdmin))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/players", playerHandler.ListHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListHandler)
		r.Get("/{tournamentID}/pairing-rules", ruleHandler.ListHandler)
		r.Get("/{tournamentID}/standings", standingsHandler.CurrentHandler)
		r.Get("/{tournamentID}/standings/{round}", standingsHandler.SnapshotHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(directorOnly)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Put("/{tournamentID}/settings", tournamentHandler.UpdateSettingsHandler)
			r.Put("/{tournamentID}/status", tournamentHandler.SetStatusHandler)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogoHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)

			r.Post("/{tournamentID}/players", playerHandler.AddHandler)
			r.Put("/{tournamentID}/players/{playerID}", playerHandler.UpdateHandler)
			r.Delete("/{tournamentID}/players/{playerID}", playerHandler.WithdrawHandler)
			r.Post("/{tournamentID}/players/reseed", playerHandler.ReseedHandler)

			r.Put("/{tournamentID}/pairing-rules", ruleHandler.ReplaceHandler)
			r.Post("/{tournamentID}/rounds/{round}/pair", pairingHandler.PairRoundHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(directorOnly)

		r.Post("/{matchID}/score", matchHandler.SubmitScoreHandler)
		r.Put("/{matchID}/score", matchHandler.EditScoreHandler)
		r.Post("/{matchID}/forfeit", matchHandler.ForfeitHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
