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
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ehabterra/polylabel/internal/config"
)

// EchoServer serves the API with echo.
type EchoServer struct {
	api  *api
	echo *echo.Echo
}

func newEchoServer(cfg *config.Config, a *api) *EchoServer {
	s := &EchoServer{api: a}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = !cfg.Server.Debug
	e.Debug = cfg.Server.Debug

	if cfg.Server.Debug {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	if cfg.Server.CORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: corsMethods,
			AllowHeaders: corsHeaders,
		}))
	}

	e.GET(routeClasses, s.handle(func(echo.Context) (int, any) { return a.classes() }))
	e.GET(routeImages, s.handle(func(echo.Context) (int, any) { return a.images() }))
	e.GET(routeImage+"*", s.handleImage)
	e.GET(routeLoad+"*", s.handle(func(c echo.Context) (int, any) { return a.load(c.Param("*")) }))
	e.POST(routeSave, s.handle(func(c echo.Context) (int, any) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
		if err != nil {
			return errorBody(err)
		}
		return a.save(body)
	}))
	e.GET(routeLabelStatus+":filename", s.handle(func(c echo.Context) (int, any) {
		return a.labelStatus(c.Param("filename"))
	}))
	e.GET(routeLabelStatusAll, s.handle(func(echo.Context) (int, any) { return a.labelStatusAll() }))
	e.GET(routeHealth, s.handle(func(echo.Context) (int, any) { return a.health() }))
	e.GET(routeMetrics, s.handle(func(echo.Context) (int, any) { return a.metrics() }))

	if cfg.Server.StaticDir != "" {
		e.Static("/", cfg.Server.StaticDir)
	}

	s.echo = e
	return s
}

// Handler returns the echo instance.
func (s *EchoServer) Handler() http.Handler {
	return s.echo
}

// Listen implements Server.
func (s *EchoServer) Listen(addr string) error {
	return listenErr(s.echo.Start(addr))
}

// Shutdown implements Server.
func (s *EchoServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *EchoServer) handle(fn func(c echo.Context) (int, any)) echo.HandlerFunc {
	return func(c echo.Context) error {
		code, body := fn(c)
		return c.JSON(code, body)
	}
}

func (s *EchoServer) handleImage(c echo.Context) error {
	p, code, body := s.api.imagePath(c.Param("*"))
	if p == "" {
		return c.JSON(code, body)
	}
	return c.File(p)
}
