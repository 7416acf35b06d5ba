package routes

import (
	"net/http"

	"github.com/courtside/community-league/handlers"
	"github.com/courtside/community-league/middleware"
	"github.com/courtside/community-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Center     *handlers.CenterHandler
	Match      *handlers.MatchHandler
	Stat       *handlers.StatHandler
	Tournament *handlers.TournamentHandler
	Promo      *handlers.PromoHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Route("/users", func(r chi.Router) {
		r.Get("/{id}", h.User.GetUserByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Put("/{id}", h.User.UpdateUserByID)
			r.Post("/{id}/avatar", h.User.UploadAvatar)
			r.Post("/coins/topup", h.User.TopUpCoins)
		})
	})

	router.Route("/centers", func(r chi.Router) {
		r.Get("/", h.Center.ListCenters)
		r.Get("/{id}", h.Center.GetCenterByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/bookings", h.Center.AddBooking)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", h.Center.CreateCenter)
				r.Post("/{id}/photo", h.Center.UploadPhoto)
			})
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Match.ListMatches)
		r.Get("/{id}", h.Match.GetMatchByID)
		r.Get("/{id}/stats", h.Stat.ListMatchStats)
		r.Get("/{id}/live", h.WebSocket.ServeMatch)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Match.CreateMatch)
			r.Patch("/{id}/status", h.Match.UpdateMatchStatus)
			r.Post("/{id}/finalize", h.Match.FinalizeMatch)
			r.Post("/{id}/stats", h.Stat.RecordMatchStat)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListTournaments)
		r.Get("/{id}", h.Tournament.GetTournamentByID)
		r.Get("/{id}/live", h.WebSocket.ServeTournament)
		r.Get("/matches/{matchID}/stats", h.Stat.ListTournamentMatchStats)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/enter", h.Tournament.EnterTournament)
			r.Post("/{id}/teams", h.Tournament.CreateTeam)
			r.Post("/{id}/matches", h.Tournament.CreateTournamentMatch)
			r.Patch("/matches/{matchID}/status", h.Tournament.UpdateTournamentMatchStatus)
			r.Post("/matches/{matchID}/finalize", h.Tournament.FinalizeTournamentMatch)
			r.Post("/matches/{matchID}/stats", h.Stat.RecordTournamentMatchStat)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", h.Tournament.CreateTournament)
			})
		})
	})

	router.Route("/promos", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/{code}", h.Promo.GetPromoByCode)
			r.Post("/{code}/redeem", h.Promo.RedeemPromo)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", h.Promo.CreatePromo)
			})
		})
	})

	return router
}
