package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/adapters/http/middleware"
)

const requestTimeout = 60 * time.Second

// NewRouter wires the campaign API. Administrative routes require the admin
// role; dispatch worker routes require the worker role.
func NewRouter(campaigns CampaignService, queue SubscriberQueue, jwtSecret []byte, logger *slog.Logger) http.Handler {
	validate := validator.New()
	campaignHandler := NewCampaignHandler(campaigns, logger, validate)
	queueHandler := NewQueueHandler(queue, logger, validate)

	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(chi_middleware.Timeout(requestTimeout))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(jwtSecret, logger))
		v1.Use(recordPrincipalRole)

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(middleware.RoleAdmin, logger))
			campaignHandler.RegisterRoutes(admin)
			admin.Get("/campaigns/{campaignID}/pending", queueHandler.PeekPending)
		})

		v1.Group(func(worker chi.Router) {
			worker.Use(middleware.RequireRole(middleware.RoleWorker, logger))
			worker.Post("/campaigns/{campaignID}/claims", queueHandler.ClaimPending)
			worker.Post("/subscribers/{subscriberID}/outcome", queueHandler.ReportOutcome)
			worker.Post("/subscribers/requeue-stale", queueHandler.RequeueStale)
		})
	})

	return r
}
