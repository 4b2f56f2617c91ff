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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ehabterra/polylabel/internal/config"
)

// GinServer serves the API with gin.
type GinServer struct {
	api    *api
	engine *gin.Engine
	http   *http.Server
}

func newGinServer(cfg *config.Config, a *api) *GinServer {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &GinServer{api: a}

	r := gin.New()
	if cfg.Server.Debug {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	if cfg.Server.CORS {
		r.Use(ginCORS())
	}

	r.GET(routeClasses, s.handle(func(*gin.Context) (int, any) { return a.classes() }))
	r.GET(routeImages, s.handle(func(*gin.Context) (int, any) { return a.images() }))
	r.GET(routeImage+"*filename", s.handleImage)
	r.GET(routeLoad+"*filename", s.handle(func(c *gin.Context) (int, any) { return a.load(wildcard(c)) }))
	r.POST(routeSave, s.handle(func(c *gin.Context) (int, any) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		body, err := c.GetRawData()
		if err != nil {
			return errorBody(err)
		}
		return a.save(body)
	}))
	r.GET(routeLabelStatus+":filename", s.handle(func(c *gin.Context) (int, any) {
		return a.labelStatus(c.Param("filename"))
	}))
	r.GET(routeLabelStatusAll, s.handle(func(*gin.Context) (int, any) { return a.labelStatusAll() }))
	r.GET(routeHealth, s.handle(func(*gin.Context) (int, any) { return a.health() }))
	r.GET(routeMetrics, s.handle(func(*gin.Context) (int, any) { return a.metrics() }))

	if cfg.Server.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}

	s.engine = r
	s.http = &http.Server{Handler: r}
	return s
}

// Handler returns the gin engine.
func (s *GinServer) Handler() http.Handler {
	return s.engine
}

// Listen implements Server.
func (s *GinServer) Listen(addr string) error {
	s.http.Addr = addr
	return listenErr(s.http.ListenAndServe())
}

// Shutdown implements Server.
func (s *GinServer) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *GinServer) handle(fn func(c *gin.Context) (int, any)) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, body := fn(c)
		c.JSON(code, body)
	}
}

func (s *GinServer) handleImage(c *gin.Context) {
	p, code, body := s.api.imagePath(wildcard(c))
	if p == "" {
		c.JSON(code, body)
		return
	}
	c.File(p)
}

// wildcard returns the catch-all filename without gin's leading slash.
func wildcard(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("filename"), "/")
}

func ginCORS() gin.HandlerFunc {
	methods := strings.Join(corsMethods, ", ")
	headers := strings.Join(corsHeaders, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
