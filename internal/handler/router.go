package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/club-membership/internal/model"
)

// NewRouter builds the full API route tree.
func NewRouter(h *Handler, verifier TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(h.log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// ─── Public ───────────────────────────────────────────────────────
		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)
		r.Get("/news", h.ListNews)
		r.Get("/news/{slug}", h.GetNews)
		r.Get("/token-packages", h.ListTokenPackages)
		r.Post("/contact", h.SubmitContact)

		r.Route("/auth", func(r chi.Router) {
			r.Use(h.RequireIdentity(verifier))
			r.Post("/register", h.Register)
			r.With(h.RequireUser).Get("/me", h.Me)
		})

		// ─── Authenticated ────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireIdentity(verifier))
			r.Use(h.RequireUser)

			r.Route("/member", func(r chi.Router) {
				r.Get("/profile", h.GetProfile)
				r.Patch("/profile", h.UpdateProfile)
				r.Get("/rsvps", h.ListMyRSVPs)
				r.Post("/rsvps", h.CreateRSVP)
				r.Delete("/rsvps", h.CancelRSVP)
				r.Get("/calendar", h.MyCalendar)
				r.Get("/tokens", h.MyTokens)
				r.Get("/purchase", h.ListMyPurchases)
				r.Post("/purchase", h.CreatePurchase)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))
				r.Get("/stats", h.AdminStats)
				r.Get("/events", h.AdminListEvents)
				r.Post("/events", h.AdminCreateEvent)
				r.Get("/events/{id}", h.AdminGetEvent)
				r.Patch("/events/{id}", h.AdminUpdateEvent)
				r.Delete("/events/{id}", h.AdminCancelEvent)
				r.Get("/events/{id}/rsvps", h.AdminListEventRSVPs)
				r.Patch("/events/{id}/rsvps", h.AdminRSVPAction)
				r.Get("/news", h.AdminListNews)
				r.Post("/news", h.AdminCreateNews)
				r.Patch("/news/{id}", h.AdminUpdateNews)
				r.Delete("/news/{id}", h.AdminDeleteNews)
			})

			r.Route("/superadmin", func(r chi.Router) {
				r.Use(h.RequireRole(model.RoleSuperAdmin))
				r.Get("/stats", h.SuperAdminStats)
				r.Get("/users", h.ListUsers)
				r.Patch("/users/{id}/role", h.ChangeRole)
				r.Patch("/users/{id}/status", h.SetUserStatus)
				r.Get("/tokens", h.ListTokenTransactions)
				r.Post("/tokens", h.CreditTokens)
				r.Delete("/tokens", h.DebitTokens)
				r.Get("/tokens/reconcile", h.ReconcileTokens)
				r.Get("/purchases", h.ListPurchases)
				r.Patch("/purchases/update", h.UpdatePurchase)
				r.Get("/audit", h.AuditLog)
			})
		})
	})

	return r
}
