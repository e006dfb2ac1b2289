// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/safing/entropyrng/history"
	"github.com/safing/entropyrng/log"
	"github.com/safing/entropyrng/metrics"
	"github.com/safing/entropyrng/rng"
)

// Backend is the random number service served by the API.
type Backend interface {
	Status() (rng.ServiceStatus, error)
	Generate(count int) ([]int, error)
	Bytes(n int) ([]byte, error)
	Collector() (*rng.Collector, error)
}

type handler struct {
	// ctx is canceled when the api shuts down.
	ctx     context.Context
	backend Backend
	history history.Store
	now     func() time.Time
}

// RequestLogger is a logging middleware.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ew := NewEnrichedResponseWriter(w)
		next.ServeHTTP(ew, r)

		// input events arrive many times per second
		if strings.HasPrefix(r.URL.Path, apiV1Path+"input/") && ew.Status < http.StatusBadRequest {
			log.Tracef("api request: %s %d %s %s", r.RemoteAddr, ew.Status, r.RequestURI, time.Since(started))
			return
		}
		log.Debugf("api request: %s %d %s %s", r.RemoteAddr, ew.Status, r.RequestURI, time.Since(started))
	})
}

// newRouter returns the complete http handler of the api.
func newRouter(h *handler) (http.Handler, error) {
	router := mux.NewRouter()

	for _, e := range h.endpoints() {
		if err := registerEndpoint(router, e); err != nil {
			return nil, err
		}
	}

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		metrics.WriteMetrics(w, true)
	}).Methods(http.MethodGet)
	router.HandleFunc("/", servePage).Methods(http.MethodGet)

	router.Use(RequestLogger)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})
	return c.Handler(router), nil
}
