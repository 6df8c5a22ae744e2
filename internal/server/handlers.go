package server

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/types"
)

// QueryRequest is the body of POST /query
type QueryRequest struct {
	History []types.Turn `json:"history"`
}

// ErrorResponse is the body of non-pipeline error replies
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "message": "AISavvy is ready. POST your conversation to /query."})
}

// handleQuery runs one conversation through the pipeline. Every terminal
// pipeline outcome maps to 200 except failed executions (400, with the
// suggested fix in the payload), validation failures (400), and oracle
// unavailability (503).
func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	response, err := s.pipeline.Handle(c.Context(), req.History)
	if err != nil {
		switch apperrors.GetType(err) {
		case apperrors.ErrTypeValidation:
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		case apperrors.ErrTypeOracle:
			s.logger.WithError(err).Error("oracle unavailable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: err.Error()})
		default:
			s.logger.WithError(err).Error("pipeline failed")
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
		}
	}

	if response.Kind == types.KindError {
		return c.Status(fiber.StatusBadRequest).JSON(response)
	}

	return c.JSON(response)
}

// handleHistory returns the audit log, newest first
func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	entries, err := s.history.List(c.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list audit log")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load history"})
	}

	return c.JSON(entries)
}

// handleERD returns the derived entity-relationship diagram as a Graphviz
// DOT string; purely presentational
func (s *Server) handleERD(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"dot_string": s.snapshot.DOT()})
}
