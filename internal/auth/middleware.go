package auth

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mapping-editor/internal/apperr"
)

// RoleAdmin may delete collaborator files.
const RoleAdmin = "admin"

// User is the authenticated caller.
type User struct {
	ID    string
	Roles []string
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Middleware returns a Fiber middleware that validates JWT tokens and sets
// the caller on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Unauthorized("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}

		c.Locals("user", &User{ID: claims.Subject, Roles: claims.Roles})
		return c.Next()
	}
}

// RequireRole rejects callers without role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return apperr.Unauthorized("Missing auth token")
		}
		if !user.HasRole(role) {
			return apperr.Forbidden(role + " access required")
		}
		return c.Next()
	}
}

// GetUser extracts the caller from a Fiber context.
func GetUser(c *fiber.Ctx) *User {
	user, _ := c.Locals("user").(*User)
	return user
}
