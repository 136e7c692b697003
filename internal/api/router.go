package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/findmelab/findme/internal/auth"
	"github.com/findmelab/findme/internal/middleware"
	"github.com/findmelab/findme/internal/services"
)

// PremiumDownloadItem is the entitlement required for hi-res result
// downloads. The mock payment flow sells exactly this item.
const PremiumDownloadItem = "hires_download"

// Router wires the HTTP boundary to the services. It owns no logic beyond
// decoding requests, resolving the caller, and mapping typed failures to
// statuses.
type Router struct {
	logger      *zap.Logger
	codec       *auth.Codec
	accounts    *services.AccountService
	definitions *services.DefinitionService
	submissions *services.SubmissionService
	results     *services.ResultService
	billing     *services.BillingService
	devLogin    bool
}

type RouterConfig struct {
	Logger      *zap.Logger
	Codec       *auth.Codec
	Accounts    *services.AccountService
	Definitions *services.DefinitionService
	Submissions *services.SubmissionService
	Results     *services.ResultService
	Billing     *services.BillingService
	DevLogin    bool
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		logger:      cfg.Logger,
		codec:       cfg.Codec,
		accounts:    cfg.Accounts,
		definitions: cfg.Definitions,
		submissions: cfg.Submissions,
		results:     cfg.Results,
		billing:     cfg.Billing,
		devLogin:    cfg.DevLogin,
	}
}

// Handler builds the full middleware chain and route table.
func (rt *Router) Handler(corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.CORS(corsOrigin))
	r.Use(middleware.WithAuth(rt.codec, rt.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": "findme API"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", rt.handleRegister)
		api.Post("/auth/session", rt.handleSessionLogin)
		api.Post("/auth/login", rt.handleDevLogin)

		api.Get("/tests/{code}", rt.handleGetTest)
		api.Post("/tests/{code}/submit", rt.handleSubmit)

		api.Get("/results/{id}", rt.handleGetResult)
		api.Get("/results/{id}/download", rt.handleDownloadResult)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireIdentity(rt.unauthenticated))
			authed.Get("/me", rt.handleMe)
			authed.Get("/results", rt.handleListResults)
			authed.Post("/billing/mock-pay", rt.handleMockPay)
			authed.Get("/billing/entitlements", rt.handleListEntitlements)

			authed.Route("/admin/tests", func(admin chi.Router) {
				admin.Post("/", rt.handleImportDefinition)
				admin.Get("/{code}/versions", rt.handleListVersions)
				admin.Post("/{code}/versions/{version}/publish", rt.handlePublish)
				admin.Post("/{code}/versions/{version}/archive", rt.handleArchive)
			})
		})
	})

	return r
}

// callerSubject returns the stable identity key for the current request, or
// "" when the caller is anonymous. Both identity variants expose the same
// subject, so results and entitlements are keyed identically no matter which
// path resolved the caller.
func callerSubject(r *http.Request) string {
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		return id.Subject()
	}
	return ""
}
