// Package server exposes the snapshot store over HTTP: state fetch, state
// sync, panic log, daily check-in, and the dashboard aggregates.
package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fokuslabs/fokus/internal/store"
)

// Options configures a Server.
type Options struct {
	JWTSecret  string
	DemoUserID string
	Now        func() time.Time // nil means time.Now
}

// Server wires the store to the Fiber app.
type Server struct {
	store *store.Store
	app   *fiber.App
	now   func() time.Time
}

// New builds the app with all routes registered but not yet listening.
func New(st *store.Store, opts Options) *Server {
	if opts.DemoUserID == "" {
		opts.DemoUserID = "demo"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{store: st, now: now}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(identityMiddleware(opts.JWTSecret, opts.DemoUserID, s.now))

	s.app.Get("/health", s.handleHealth)
	api := s.app.Group("/api")
	api.Get("/focus/state", s.handleState)
	api.Post("/focus/sync", s.handleSync)
	api.Post("/panic", requireAuth, s.handlePanic)
	api.Get("/checkin/today", s.handleCheckinGet)
	api.Post("/checkin/today", s.handleCheckinPost)
	api.Get("/stats", requireAuth, s.handleStats)
	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	log.Printf("fokusd listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	log.Println("fokusd shutting down")
	return s.app.Shutdown()
}
