package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	PlayerIDHeader = "X-Player-ID"
	PlayerIDKey    = "playerID"
)

// EnsurePlayerID stores the caller's player id in the request locals. The
// id comes from the X-Player-ID header or the playerId query parameter.
// When issue is set a missing id is replaced by a fresh one, echoed back in
// the response header; otherwise the request is refused. The stored id is
// copied out of the request buffer.
func EnsurePlayerID(issue bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Check if playerID is already set
		if c.Locals(PlayerIDKey) != nil {
			return c.Next()
		}

		playerID := c.Get(PlayerIDHeader)
		if playerID == "" {
			playerID = c.Query("playerId")
		}
		if playerID == "" {
			if !issue {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Player ID is required. Please ensure client is properly initialized.",
				})
			}
			playerID = uuid.New().String()
		} else {
			playerID = utils.CopyString(playerID)
		}

		c.Set(PlayerIDHeader, playerID)
		c.Locals(PlayerIDKey, playerID)
		return c.Next()
	}
}

// PlayerID returns the id stored by EnsurePlayerID.
func PlayerID(c *fiber.Ctx) string {
	id, _ := c.Locals(PlayerIDKey).(string)
	return id
}
