package main

import (
	"encoding/json"
	"net/http"

	"tradewind/internal/observability"
	"tradewind/internal/orders"

	"github.com/google/uuid"
)

// newOrderHandler exposes the saga service over a small JSON API. Callers
// supply X-Request-Id to make retried submissions land on the same order;
// without it each POST starts a fresh saga.
func newOrderHandler(service *orders.SagaService, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var req orders.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		result, err := service.Fulfill(r.Context(), req, requestID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.RecordSagaOutcome(string(result.Status))
		writeJSON(w, http.StatusCreated, result)
	})

	mux.HandleFunc("POST /orders/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		result, err := service.Cancel(r.Context(), r.PathValue("id"), body.Reason)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.RecordSagaOutcome(string(result.Status))
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		result, err := service.GetOrderStatus(r.Context(), r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
