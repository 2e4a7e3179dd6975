package server

import (
	"fmt"
	"time"

	"civica/cache"
	"civica/models"

	"github.com/gofiber/fiber/v2"
)

// GetReviewQueue handles GET /api/admin/review-queue — pending submissions
// and pending edits, oldest first.
func (s *Server) GetReviewQueue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	ideas, err := s.ideaRepo.ListForReview(c.UserContext(), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(ideas)
}

// ApproveIdea handles POST /api/admin/ideas/:id/approve
func (s *Server) ApproveIdea(c *fiber.Ctx) error {
	moderatorID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	idea, err := s.lifecycle.ApproveIdea(c.UserContext(), moderatorID, uint(id))
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	cache.Invalidate(c.UserContext(), fmt.Sprintf("idea:%d", id))
	return c.JSON(idea)
}

// RejectIdea handles POST /api/admin/ideas/:id/reject
//
// For a pending edit the default policy restores the previously published
// revision; `override: true` forces the idea into rejected instead.
func (s *Server) RejectIdea(c *fiber.Ctx) error {
	moderatorID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	var req struct {
		Override bool   `json:"override"`
		Reason   string `json:"reason"`
	}
	// Body is optional; an empty body means default policy, no reason.
	_ = c.BodyParser(&req)

	idea, err := s.lifecycle.RejectIdea(c.UserContext(), moderatorID, uint(id), req.Override, req.Reason)
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	cache.Invalidate(c.UserContext(), fmt.Sprintf("idea:%d", id))
	return c.JSON(idea)
}

// DeleteIdea handles DELETE /api/admin/ideas/:id (soft delete)
func (s *Server) DeleteIdea(c *fiber.Ctx) error {
	moderatorID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	if err := s.lifecycle.DeleteIdea(c.UserContext(), moderatorID, uint(id), req.Reason); err != nil {
		return models.RespondDomainError(c, err)
	}

	cache.Invalidate(c.UserContext(), fmt.Sprintf("idea:%d", id))
	return c.SendStatus(fiber.StatusNoContent)
}

// HideComment handles POST /api/admin/comments/:id/hide
func (s *Server) HideComment(c *fiber.Ctx) error {
	return s.setCommentHidden(c, true)
}

// UnhideComment handles POST /api/admin/comments/:id/unhide
func (s *Server) UnhideComment(c *fiber.Ctx) error {
	return s.setCommentHidden(c, false)
}

func (s *Server) setCommentHidden(c *fiber.Ctx, hidden bool) error {
	moderatorID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid comment ID"))
	}

	comment, err := s.lifecycle.SetCommentHidden(c.UserContext(), moderatorID, uint(id), hidden)
	if err != nil {
		return models.RespondDomainError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/admin/comments/:id (soft delete)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	moderatorID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid comment ID"))
	}

	if err := s.lifecycle.DeleteComment(c.UserContext(), moderatorID, uint(id)); err != nil {
		return models.RespondDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IssuePenalty handles POST /api/admin/penalties
func (s *Server) IssuePenalty(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)

	var req struct {
		UserID        uint   `json:"user_id"`
		Kind          string `json:"kind"`
		Reason        string `json:"reason"`
		DurationHours int    `json:"duration_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	penalty, err := s.penalties.IssuePenalty(c.UserContext(), adminID, req.UserID,
		req.Kind, req.Reason, time.Duration(req.DurationHours)*time.Hour)
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(penalty)
}

// GetUserPenalties handles GET /api/admin/users/:id/penalties
func (s *Server) GetUserPenalties(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	penalties, err := s.penaltyRepo.ListByUser(c.UserContext(), uint(id), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(penalties)
}

// SetUserRole handles POST /api/admin/users/:id/role — promotes or demotes
// an account. Role changes are governance actions, so they land in the
// audit log like any penalty would.
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	switch req.Role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid role"))
	}

	if err := s.userRepo.UpdateRole(c.UserContext(), uint(id), req.Role); err != nil {
		return models.RespondDomainError(c, err)
	}

	s.recorder.Record(c.UserContext(), adminID, "user.role_changed",
		models.TargetUser, uint(id), fmt.Sprintf("role=%s", req.Role))
	return c.JSON(fiber.Map{"id": uint(id), "role": req.Role})
}

// GetIdeaAudit handles GET /api/admin/ideas/:id/audit — the moderation
// history of one idea, for reviewers tracing how it reached its state.
func (s *Server) GetIdeaAudit(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	entries, err := s.recorder.ListForTarget(c.UserContext(), models.TargetIdea, uint(id), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(entries)
}

// DecideAppeal handles POST /api/admin/appeals/:id/decide
func (s *Server) DecideAppeal(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid appeal ID"))
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appeal, err := s.appeals.Decide(c.UserContext(), adminID, uint(id), req.Approve)
	if err != nil {
		return models.RespondDomainError(c, err)
	}
	return c.JSON(appeal)
}

// GetWatchlist handles GET /api/admin/watchlist — open entries, oldest first.
func (s *Server) GetWatchlist(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	entries, err := s.watchlistRepo.ListOpen(c.UserContext(), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(entries)
}

// ClearWatchlist handles POST /api/admin/watchlist/:id/clear
func (s *Server) ClearWatchlist(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid watchlist entry ID"))
	}

	entry, err := s.watchlist.Clear(c.UserContext(), adminID, uint(id))
	if err != nil {
		return models.RespondDomainError(c, err)
	}
	return c.JSON(entry)
}

// ExportUserAudit handles GET /api/admin/users/:id/audit — the compliance
// export. Exports are abusable, so they pass the admission gate.
func (s *Server) ExportUserAudit(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
	}

	if err := s.gate.Check(c.UserContext(), adminID, "audit_export",
		s.config.ExportLimit, s.config.ExportWindow()); err != nil {
		return models.RespondDomainError(c, err)
	}

	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	entries, err := s.recorder.ListForUser(c.UserContext(), uint(id), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(entries)
}
