package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"settlement-portal/internal/config"
	"settlement-portal/internal/utils"
)

// AuthMiddleware accepts either a bearer JWT issued by the portal's
// identity provider or a service API key (X-Api-Key) checked against the
// bcrypt hash in configuration. Login and session flows live outside this
// service.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey := c.Get("X-Api-Key"); apiKey != "" {
			if utils.CheckAPIKey(apiKey, cfg.APIKeyHash) {
				c.Locals("user_id", 0)
				c.Locals("username", "service")
				c.Locals("role", "service")
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid API key",
			})
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header is required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// OperatorOnly restricts settlement validation actions to operator or
// admin roles; service tokens pass as well.
func OperatorOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("role")
		if role != "operator" && role != "admin" && role != "service" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Operator access required",
			})
		}
		return c.Next()
	}
}
