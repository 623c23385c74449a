// Package server exposes enrollment and matching over HTTP.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/registry"
	"github.com/high-horse/fingerprint-server/skeleton"
	"github.com/high-horse/fingerprint-server/storage"
	"github.com/high-horse/fingerprint-server/templates"
)

type Server struct {
	app    *fiber.App
	reg    *registry.Registry
	logger zerolog.Logger
}

func New(reg *registry.Registry, cfg config.Server, log zerolog.Logger) *Server {
	s := &Server{reg: reg, logger: log}

	s.app = fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: zerologWriter{s.logger},
	}))
	s.app.Use(cors.New())

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now(),
		})
	})
	s.app.Post("/match", s.matchFingerprints)
	s.app.Post("/enroll", s.enroll)
	s.app.Post("/verify", s.verify)
	s.app.Get("/templates/:code", s.loadTemplate)
	s.app.Delete("/templates/:code", s.deleteTemplate)

	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info().Msgf("server starting on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// toFiberError maps domain errors onto HTTP status codes.
func toFiberError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, skeleton.ErrInvalidImage), errors.Is(err, registry.ErrEmptyCode):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, templates.ErrCodec):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return err
}

// zerologWriter feeds fiber's access log lines into zerolog.
type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	w.logger.Info().Msg(string(p))
	return n, nil
}
