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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ehabterra/polylabel/internal/config"
)

// fiberBodyLimit is the transport cap. It sits above maxBodyBytes so that
// oversized saves reach the handler and get the same 413 body as elsewhere.
const fiberBodyLimit = 2 * maxBodyBytes

// FiberServer serves the API with fiber.
type FiberServer struct {
	api *api
	app *fiber.App
}

func newFiberServer(cfg *config.Config, a *api) *FiberServer {
	s := &FiberServer{api: a}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: !cfg.Server.Debug,
		UnescapePath:          true,
		BodyLimit:             fiberBodyLimit,
	})

	if cfg.Server.Debug {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	if cfg.Server.CORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: strings.Join(corsMethods, ","),
			AllowHeaders: strings.Join(corsHeaders, ","),
		}))
	}

	app.Get(routeClasses, s.handle(func(*fiber.Ctx) (int, any) { return a.classes() }))
	app.Get(routeImages, s.handle(func(*fiber.Ctx) (int, any) { return a.images() }))
	app.Get(routeImage+"*", s.handleImage)
	app.Get(routeLoad+"*", s.handle(func(c *fiber.Ctx) (int, any) { return a.load(c.Params("*")) }))
	app.Post(routeSave, s.handle(func(c *fiber.Ctx) (int, any) {
		if err := checkBodySize(c.Body()); err != nil {
			return errorBody(err)
		}
		return a.save(c.Body())
	}))
	app.Get(routeLabelStatus+":filename", s.handle(func(c *fiber.Ctx) (int, any) {
		return a.labelStatus(c.Params("filename"))
	}))
	app.Get(routeLabelStatusAll, s.handle(func(*fiber.Ctx) (int, any) { return a.labelStatusAll() }))
	app.Get(routeHealth, s.handle(func(*fiber.Ctx) (int, any) { return a.health() }))
	app.Get(routeMetrics, s.handle(func(*fiber.Ctx) (int, any) { return a.metrics() }))

	if cfg.Server.StaticDir != "" {
		app.Static("/", cfg.Server.StaticDir)
	}

	s.app = app
	return s
}

// App returns the fiber application.
func (s *FiberServer) App() *fiber.App {
	return s.app
}

// Listen implements Server.
func (s *FiberServer) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown implements Server.
func (s *FiberServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *FiberServer) handle(fn func(c *fiber.Ctx) (int, any)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, body := fn(c)
		return c.Status(code).JSON(body)
	}
}

func (s *FiberServer) handleImage(c *fiber.Ctx) error {
	p, code, body := s.api.imagePath(c.Params("*"))
	if p == "" {
		return c.Status(code).JSON(body)
	}
	return c.SendFile(p)
}
