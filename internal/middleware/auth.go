package middleware

import (
	"strings"

	"jasaku/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the JWT from the token cookie or an
// Authorization bearer header
func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := TokenFrom(c)
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - No token provided",
		})
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - Invalid token",
		})
	}

	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("name", claims.Name)

	return c.Next()
}

// TokenFrom extracts the credential from the cookie, the Authorization
// header, or (for websocket handshakes) the token query parameter
func TokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("token"); token != "" {
		return token
	}
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return after
		}
	}
	return c.Query("token")
}

// GetUserID gets user ID from context
func GetUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return ""
	}
	return userID
}
