package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"propcost/internal/metrics"
	svr "propcost/internal/server"
	"propcost/internal/service"
)

type Handler struct {
	Mux      *http.ServeMux
	Service  *service.Service
	Config   svr.Config
	RDB      *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewHandler wires the HTTP surface. rdb may be nil when rate limiting is
// disabled; gatherer defaults to the global Prometheus registry.
func NewHandler(services *service.Service, config svr.Config, rdb *redis.Client, m *metrics.Metrics, gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		Mux:      http.NewServeMux(),
		Service:  services,
		Config:   config,
		RDB:      rdb,
		Metrics:  m,
		Gatherer: gatherer,
	}
}

func (h *Handler) InitRoutes() http.Handler {
	h.Mux.HandleFunc("/api/security/dashboard", h.security(h.dashboard))
	h.Mux.HandleFunc("/api/security/threats/resolve", h.security(h.resolveThreat))
	h.Mux.HandleFunc("/api/security/monitoring", h.security(h.toggleMonitoring))

	h.Mux.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	h.Mux.HandleFunc("/healthz", h.health)

	return h.requestID(h.Mux)
}

// security chains the principal lookup and the rate limiter in front of
// an admin route.
func (h *Handler) security(next http.HandlerFunc) http.HandlerFunc {
	return h.middleWareGetUser(h.rateLimit(next))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
