package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"neobots/native/economy"
)

type healthResponse struct {
	Status           string `json:"status"`
	Forum            string `json:"forum,omitempty"`
	Round            uint64 `json:"round"`
	RoundDistributed uint64 `json:"roundDistributed"`
	MaxDistribution  uint64 `json:"maxDistribution"`
}

func newRouter(service *economy.Service, forum string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{Status: "ok", Forum: forum}
		status := http.StatusOK
		if forum != "" {
			f, err := service.Forum(req.Context(), forum)
			switch {
			case err == nil:
				resp.Round = f.Status.Number
				resp.RoundDistributed = f.RoundDistributed
				resp.MaxDistribution = f.Status.MaxDistribution
			case errors.Is(err, economy.ErrForumNotFound):
				resp.Status = "missing forum"
				status = http.StatusServiceUnavailable
			default:
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	})
	r.Handle("/metrics", promhttp.Handler())
	return otelhttp.NewHandler(r, "economyd")
}
