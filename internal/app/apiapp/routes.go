package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	adminauthsvc "github.com/DevAniketIT/Playbharat/internal/services/adminauth"
	auditsvc "github.com/DevAniketIT/Playbharat/internal/services/audit"
	ratesvc "github.com/DevAniketIT/Playbharat/internal/services/rate"
	statsvc "github.com/DevAniketIT/Playbharat/internal/services/stats"
	strikesvc "github.com/DevAniketIT/Playbharat/internal/services/strikes"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
	"github.com/DevAniketIT/Playbharat/internal/transport/http/handlers"
)

type Dependencies struct {
	TokenManager      *adminauthsvc.TokenManager
	UserRepo          *pgrepo.UserRepo
	StrikeService     *strikesvc.Service
	SuspensionService *suspsvc.Service
	AuditService      *auditsvc.Service
	StatsService      *statsvc.Service
	RateLimiter       *ratesvc.Limiter
	ArchiveBucket     string
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	usersHandler := handlers.NewUsersHandler(deps.UserRepo)
	strikesHandler := handlers.NewStrikesHandler(deps.StrikeService)
	suspensionsHandler := handlers.NewSuspensionsHandler(deps.SuspensionService)
	auditHandler := handlers.NewAuditHandler(deps.AuditService, deps.ArchiveBucket)
	statsHandler := handlers.NewStatsHandler(deps.StatsService)

	authMW := AuthMiddleware(deps.TokenManager, deps.Logger)
	adminOnlyMW := RequireRole(enums.RoleAdmin, enums.RoleOwner)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Use(RateLimit(deps.RateLimiter, deps.Logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersHandler.List)
			r.Get("/{userID}", usersHandler.Get)

			r.Get("/{userID}/strikes", strikesHandler.ListForUser)
			r.Post("/{userID}/strikes", strikesHandler.Issue)
			r.Get("/{userID}/strikes/count", strikesHandler.Count)

			r.Post("/{userID}/ban", suspensionsHandler.BanUser)
			r.Post("/{userID}/unban", suspensionsHandler.UnbanUser)
			r.Get("/{userID}/suspensions", suspensionsHandler.ListForUser)
			r.Post("/{userID}/suspensions", suspensionsHandler.SuspendUser)
		})

		r.Post("/strikes/{strikeID}/resolve", strikesHandler.Resolve)

		r.Route("/channels", func(r chi.Router) {
			r.Get("/{channelID}/suspensions", suspensionsHandler.ListForChannel)
			r.Post("/{channelID}/suspensions", suspensionsHandler.SuspendChannel)
		})

		r.Route("/suspensions", func(r chi.Router) {
			r.Get("/{suspensionID}", suspensionsHandler.Get)
			r.Post("/{suspensionID}/lift", suspensionsHandler.Lift)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Get("/", auditHandler.List)
			r.Get("/export", auditHandler.Export)
			r.With(adminOnlyMW).Post("/archive", auditHandler.Archive)
		})

		r.Get("/stats/overview", statsHandler.Overview)
	})
}
