package server

import (
	"fmt"
	"time"

	"civica/cache"
	"civica/models"

	"github.com/gofiber/fiber/v2"
)

// CreateIdea handles POST /api/ideas
func (s *Server) CreateIdea(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	idea, err := s.lifecycle.CreateIdea(c.UserContext(), userID, req.Title, req.Content)
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(idea)
}

// GetIdeas handles GET /api/ideas
func (s *Server) GetIdeas(c *fiber.Ctx) error {
	ctx := c.UserContext()
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	ideas, err := s.ideaRepo.ListPublic(ctx, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(ideas)
}

// GetMyIdeas handles GET /api/ideas/my-ideas — the caller's own submissions
// in every moderation state except deleted, so authors can see pending and
// rejected ideas the public listing hides.
func (s *Server) GetMyIdeas(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	ideas, err := s.ideaRepo.ListByUser(c.UserContext(), userID, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(ideas)
}

// GetIdea handles GET /api/ideas/:id
func (s *Server) GetIdea(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	var idea models.Idea
	key := fmt.Sprintf("idea:%d", id)
	err = cache.CacheAside(ctx, key, &idea, 30*time.Second, func() error {
		found, ferr := s.ideaRepo.GetVisibleByID(ctx, uint(id))
		if ferr != nil {
			return ferr
		}
		idea = *found
		return nil
	})
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	return c.JSON(idea)
}

// EditIdea handles PUT /api/ideas/:id. An edit to an approved idea moves it
// back into moderation as a pending edit.
func (s *Server) EditIdea(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid idea ID"))
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	idea, err := s.lifecycle.SubmitEdit(c.UserContext(), userID, uint(id), req.Title, req.Content)
	if err != nil {
		return models.RespondDomainError(c, err)
	}

	cache.Invalidate(c.UserContext(), fmt.Sprintf("idea:%d", id))
	return c.JSON(idea)
}
