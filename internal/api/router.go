package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the panel routes. The returned handler includes the
// allow-all CORS layer the panel has always had; it is meant for a
// trusted local network only.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/set_ip", h.SetIP).Methods("POST")
	r.HandleFunc("/connect", h.Connect).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")
	r.HandleFunc("/key", h.Key).Methods("POST")
	r.HandleFunc("/reboot", h.Reboot).Methods("POST")
	r.HandleFunc("/screenshot", h.Screenshot).Methods("GET")
	r.HandleFunc("/screen", h.Screen).Methods("GET")
	r.HandleFunc("/events", h.Events).Methods("GET")
	r.HandleFunc("/", h.Index).Methods("GET")
	return cors(r)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
