package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the configured flags evaluated for the current user.
// Clients read realtime_push here to decide between the websocket and polling.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"evaluated": s.flags.Snapshot(userID),
	})
}
