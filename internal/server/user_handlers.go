package server

import (
	"unigram/internal/models"
	"unigram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateUserProfile handles PUT /api/users/:id. Omitted fields are left as
// they are; the handle cannot be changed.
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name            *string `json:"name"`
		Bio             *string `json:"bio"`
		Department      *string `json:"department"`
		Pronoun         *string `json:"pronoun"`
		LinkedIn        *string `json:"linkedin"`
		Instagram       *string `json:"instagram"`
		ProfileImageURL *string `json:"profile_image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID:         actorID,
		UserID:          id,
		Name:            req.Name,
		Bio:             req.Bio,
		Department:      req.Department,
		Pronoun:         req.Pronoun,
		LinkedIn:        req.LinkedIn,
		Instagram:       req.Instagram,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
