package server

import (
	"civica/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitAppeal handles POST /api/appeals
//
// The route requires an authenticated identity but deliberately not an
// unpenalized one. Submission passes the admission gate before touching
// the workflow.
func (s *Server) SubmitAppeal(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	if err := s.gate.Check(ctx, userID, "submit_appeal",
		s.config.AppealLimit, s.config.AppealWindow()); err != nil {
		return models.RespondDomainError(c, err)
	}

	var req struct {
		PenaltyID uint   `json:"penalty_id"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PenaltyID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("penalty_id is required"))
	}

	appeal, err := s.appeals.Submit(ctx, userID, req.PenaltyID, req.Reason)
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(appeal.ToResponse())
}

// GetMyAppeals handles GET /api/appeals/my-appeals?skip&limit
func (s *Server) GetMyAppeals(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	appeals, err := s.appealRepo.ListByUser(ctx, userID, limit, skip)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	responses := make([]models.AppealResponse, 0, len(appeals))
	for _, a := range appeals {
		responses = append(responses, a.ToResponse())
	}
	return c.JSON(responses)
}
