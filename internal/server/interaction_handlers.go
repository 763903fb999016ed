package server

import (
	"unigram/internal/models"
	"unigram/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// ToggleLike handles PUT /api/posts/:postId/like. The same request likes an
// unliked post and unlikes a liked one.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	result, err := s.interactions.ToggleLike(c.UserContext(), postID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// CreateComment handles POST /api/posts/:postId/comment and returns the
// post's full comment thread.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comments, err := s.interactions.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   postID,
		AuthorID: userID,
		Text:     req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comments)
}

// CreateReply handles POST /api/posts/:postId/comment/:commentId/reply
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comments, err := s.interactions.AddReply(c.UserContext(), service.AddReplyInput{
		PostID:    postID,
		CommentID: commentID,
		AuthorID:  userID,
		Text:      req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comments)
}
