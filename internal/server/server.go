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


// Package server exposes the annotation service over HTTP. The same routes
// are available on chi, gin, echo and fiber; the framework is chosen in
// configuration.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ehabterra/polylabel/internal/annotate"
	"github.com/ehabterra/polylabel/internal/config"
	"github.com/ehabterra/polylabel/internal/label"
	"github.com/ehabterra/polylabel/internal/metrics"
)

// Route paths shared by every framework.
const (
	routeClasses        = "/classes"
	routeImages         = "/images"
	routeImage          = "/image/"
	routeLoad           = "/load/"
	routeSave           = "/save"
	routeLabelStatus    = "/label-status/"
	routeLabelStatusAll = "/label-status-all"
	routeHealth         = "/health"
	routeMetrics        = "/metrics"
)

// maxBodyBytes caps the size of a save request.
const maxBodyBytes = 32 << 20

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Content-Type"}
)

// Server is an HTTP front end for the annotation service.
type Server interface {
	// Listen serves on addr until Shutdown is called.
	Listen(addr string) error
	// Shutdown stops accepting requests and waits for in-flight ones.
	Shutdown(ctx context.Context) error
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SaveResponse is returned by a successful save.
type SaveResponse struct {
	Status string `json:"status"`
}

// LabelStatusResponse reports whether an image has a label file.
type LabelStatusResponse struct {
	HasLabel bool `json:"has_label"`
}

// New builds the server for cfg.Server.Framework.
func New(cfg *config.Config, svc *annotate.Service) (Server, error) {
	a := &api{svc: svc, started: time.Now()}

	switch cfg.Server.Framework {
	case config.FrameworkChi, "":
		return newChiServer(cfg, a), nil
	case config.FrameworkGin:
		return newGinServer(cfg, a), nil
	case config.FrameworkEcho:
		return newEchoServer(cfg, a), nil
	case config.FrameworkFiber:
		return newFiberServer(cfg, a), nil
	default:
		return nil, fmt.Errorf("unsupported framework: %s", cfg.Server.Framework)
	}
}

// api turns service calls into a status code and a JSON body so that each
// framework adapter only moves bytes.
type api struct {
	svc     *annotate.Service
	started time.Time
}

func errorBody(err error) (int, any) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		code := http.StatusRequestEntityTooLarge
		return code, ErrorResponse{Error: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), Code: code}
	case annotate.IsClientError(err):
		code := http.StatusBadRequest
		if errors.Is(err, annotate.ErrNotFound) {
			code = http.StatusNotFound
		}
		return code, ErrorResponse{Error: annotate.Message(err), Code: code}
	default:
		log.Printf("server: %v", err)
		code := http.StatusInternalServerError
		return code, ErrorResponse{Error: annotate.Message(err), Code: code}
	}
}

// checkBodySize is used where the framework hands over the body already
// buffered.
func checkBodySize(body []byte) error {
	if len(body) > maxBodyBytes {
		return &http.MaxBytesError{Limit: maxBodyBytes}
	}
	return nil
}

func (a *api) classes() (int, any) {
	classes, err := a.svc.Classes()
	if err != nil {
		return errorBody(err)
	}
	return http.StatusOK, classes
}

func (a *api) images() (int, any) {
	images, err := a.svc.Images()
	if err != nil {
		return errorBody(err)
	}
	return http.StatusOK, images
}

// imagePath resolves an image to serve; on failure the status and body
// describe the error.
func (a *api) imagePath(name string) (string, int, any) {
	p, err := a.svc.ImagePath(name)
	if err != nil {
		code, body := errorBody(err)
		return "", code, body
	}
	return p, http.StatusOK, nil
}

// load answers an empty list for unknown images, as the client treats a
// missing list and an empty one alike.
func (a *api) load(name string) (int, any) {
	anns, err := a.svc.Load(name)
	if err != nil {
		if errors.Is(err, annotate.ErrNotFound) {
			log.Printf("WARNING: attempted to load labels for non-existent image: %s", name)
			return http.StatusOK, []label.Annotation{}
		}
		return errorBody(err)
	}
	return http.StatusOK, anns
}

func (a *api) save(body []byte) (int, any) {
	var req *annotate.SaveRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON: " + err.Error(), Code: http.StatusBadRequest}
		}
	}

	if err := a.svc.Save(req); err != nil {
		return errorBody(err)
	}
	return http.StatusOK, SaveResponse{Status: "ok"}
}

func (a *api) labelStatus(name string) (int, any) {
	return http.StatusOK, LabelStatusResponse{HasLabel: a.svc.HasLabel(name)}
}

func (a *api) labelStatusAll() (int, any) {
	m, err := a.svc.StatusAll()
	if err != nil {
		return errorBody(err)
	}
	return http.StatusOK, m
}

func (a *api) health() (int, any) {
	uptime := time.Since(a.started)
	if m := a.svc.Metrics(); m != nil {
		uptime = m.Uptime()
	}
	return http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    uptime.String(),
	}
}

func (a *api) metrics() (int, any) {
	m := a.svc.Metrics()
	if m == nil {
		return http.StatusOK, metrics.Snapshot{}
	}
	return http.StatusOK, m.Snapshot()
}

// listenErr hides the error returned by a graceful shutdown.
func listenErr(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
