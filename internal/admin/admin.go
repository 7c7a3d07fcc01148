// Package admin exposes a small HTTP surface for operating an
// epochrunner process: liveness and Prometheus metrics. This is
// distinct from, and does not implement, an HTTP read API over stored
// artifacts.
package admin

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires /healthz and /metrics, wrapped in request logging
// the way the teacher's ledger service wraps its own router.
func NewRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return handlers.LoggingHandler(os.Stdout, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
