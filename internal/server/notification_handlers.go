package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications/:userId?limit=&offset=. Only
// the recipient may read their notifications.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	recipientID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	items, err := s.notifications.ListNotifications(c.UserContext(), viewerID, recipientID,
		c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(items)
}

// GetUnreadCount handles GET /api/notifications/:userId/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	recipientID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	n, err := s.notifications.UnreadCount(c.UserContext(), viewerID, recipientID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": n})
}

// MarkNotificationsSeen handles POST /api/notifications/mark-seen/:userId
func (s *Server) MarkNotificationsSeen(c *fiber.Ctx) error {
	viewerID := c.Locals("userID").(uint)
	recipientID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	n, err := s.notifications.MarkAllSeen(c.UserContext(), viewerID, recipientID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"updated_count": n})
}
