package server

import (
	"unigram/internal/models"
	"unigram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateStory handles POST /api/unisnaps as multipart form data with an
// "image" file and an optional "text_overlay".
func (s *Server) CreateStory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	image, err := readUpload(c, "image", int64(s.config.MaxUploadBytes()))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	story, err := s.storyService.CreateStory(c.UserContext(), service.CreateStoryInput{
		UserID:      userID,
		Image:       image,
		TextOverlay: c.FormValue("text_overlay"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// GetStories handles GET /api/unisnaps
func (s *Server) GetStories(c *fiber.Ctx) error {
	groups, err := s.storyService.ListActive(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	if groups == nil {
		groups = []service.StoryGroup{}
	}
	return c.JSON(groups)
}

// DeleteStory handles DELETE /api/unisnaps/:id
func (s *Server) DeleteStory(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	storyID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.storyService.DeleteStory(c.UserContext(), userID, storyID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Story deleted"})
}
