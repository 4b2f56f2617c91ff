// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ehabterra/polylabel/internal/config"
)

// ChiServer serves the API with go-chi.
type ChiServer struct {
	api    *api
	cors   bool
	router chi.Router
	http   *http.Server
}

func newChiServer(cfg *config.Config, a *api) *ChiServer {
	s := &ChiServer{api: a, cors: cfg.Server.CORS}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Server.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	if s.cors {
		r.Use(s.corsMiddleware)
	}

	r.Get(routeClasses, s.handle(func(*http.Request) (int, any) { return a.classes() }))
	r.Get(routeImages, s.handle(func(*http.Request) (int, any) { return a.images() }))
	r.Get(routeImage+"*", s.handleImage)
	r.Get(routeLoad+"*", s.handle(func(r *http.Request) (int, any) { return a.load(chi.URLParam(r, "*")) }))
	r.With(middleware.RequestSize(maxBodyBytes)).Post(routeSave, s.handle(func(r *http.Request) (int, any) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return errorBody(err)
		}
		return a.save(body)
	}))
	r.Get(routeLabelStatus+"{filename}", s.handle(func(r *http.Request) (int, any) {
		return a.labelStatus(chi.URLParam(r, "filename"))
	}))
	r.Get(routeLabelStatusAll, s.handle(func(*http.Request) (int, any) { return a.labelStatusAll() }))
	r.Get(routeHealth, s.handle(func(*http.Request) (int, any) { return a.health() }))
	r.Get(routeMetrics, s.handle(func(*http.Request) (int, any) { return a.metrics() }))

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	s.router = r
	s.http = &http.Server{Handler: r}
	return s
}

// Handler returns the router.
func (s *ChiServer) Handler() http.Handler {
	return s.router
}

// Listen implements Server.
func (s *ChiServer) Listen(addr string) error {
	s.http.Addr = addr
	return listenErr(s.http.ListenAndServe())
}

// Shutdown implements Server.
func (s *ChiServer) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *ChiServer) handle(fn func(r *http.Request) (int, any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, body := fn(r)
		writeJSON(w, code, body)
	}
}

func (s *ChiServer) handleImage(w http.ResponseWriter, r *http.Request) {
	p, code, body := s.api.imagePath(chi.URLParam(r, "*"))
	if p == "" {
		writeJSON(w, code, body)
		return
	}
	http.ServeFile(w, r, p)
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *ChiServer) corsMiddleware(next http.Handler) http.Handler {
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes JSON response. The body is encoded before the status is
// sent so an encoding failure can still be reported as a 500.
func writeJSON(w http.ResponseWriter, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to encode JSON: %v", err)
		code = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Code: code})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
