package server

import (
	"civica/models"

	"github.com/gofiber/fiber/v2"
)

// CreateComment creates a comment on an approved idea (protected)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	ideaID, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	// Only visible ideas accept comments.
	if _, err := s.ideaRepo.GetVisibleByID(ctx, uint(ideaID)); err != nil {
		return models.RespondDomainError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	comment := &models.Comment{
		Content: req.Content,
		UserID:  userID,
		IdeaID:  uint(ideaID),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetComments returns visible comments for an idea (public)
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	ideaID, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	if _, err := s.ideaRepo.GetVisibleByID(ctx, uint(ideaID)); err != nil {
		return models.RespondDomainError(c, err)
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	viewerID, _ := s.optionalUserID(c)

	comments, err := s.commentRepo.ListVisibleByIdea(ctx, uint(ideaID), viewerID, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(comments)
}

// ToggleCommentLike handles POST /api/comments/:id/like
// The endpoint toggles: a second call by the same user reverses the first.
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid comment ID"))
	}

	liked, comment, err := s.lifecycle.ToggleCommentLike(c.UserContext(), userID, uint(commentID))
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"liked":      liked,
		"like_count": comment.LikeCount,
		"comment":    comment,
	})
}
