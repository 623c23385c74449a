package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) matchFingerprints(c *fiber.Ctx) error {
	start := time.Now()

	var req MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ProbeImage == "" || req.CandidateImage == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Both probe_image and candidate_image are required")
	}

	probe, err := decodeImage("probe_image", req.ProbeImage)
	if err != nil {
		return err
	}
	candidate, err := decodeImage("candidate_image", req.CandidateImage)
	if err != nil {
		return err
	}

	res, err := s.reg.Compare(probe, candidate)
	if err != nil {
		return toFiberError(err)
	}
	s.logger.Debug().Int("count", res.Count).Bool("match", res.Matched).Msg("fingerprints compared")

	return c.JSON(MatchResponse{
		Match:     res.Matched,
		Count:     res.Count,
		Threshold: s.reg.Matcher().Options().Threshold,
		Elapsed:   time.Since(start).String(),
	})
}

func (s *Server) enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	image, err := decodeImage("image", req.Image)
	if err != nil {
		return err
	}

	e, err := s.reg.Enroll(c.UserContext(), req.Code, req.Name, image)
	if err != nil {
		return toFiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

func (s *Server) verify(c *fiber.Ctx) error {
	start := time.Now()

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	image, err := decodeImage("image", req.Image)
	if err != nil {
		return err
	}

	v, err := s.reg.Verify(c.UserContext(), image)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(VerifyResponse{Verification: v, Elapsed: time.Since(start).String()})
}

func (s *Server) loadTemplate(c *fiber.Ctx) error {
	rec, t, err := s.reg.Load(c.UserContext(), c.Params("code"))
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(TemplateResponse{
		Code:     rec.Code,
		Name:     rec.Name,
		Enrolled: rec.Enrolled,
		Minutiae: t,
		Template: rec.Template,
	})
}

func (s *Server) deleteTemplate(c *fiber.Ctx) error {
	if err := s.reg.Delete(c.UserContext(), c.Params("code")); err != nil {
		return toFiberError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
