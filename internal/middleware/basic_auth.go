package middleware

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/identity"
)

// BasicAuth verifies HTTP Basic credentials against the identity service and
// stores the resolved account id and username in request locals. Downstream
// handlers trust account_id and never parse credentials themselves.
func BasicAuth(ids *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "basic ") {
			return fiber.NewError(http.StatusUnauthorized, "basic authentication required")
		}

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authz[len("Basic "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials format")
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok || username == "" || password == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials format")
		}

		user, err := ids.Authenticate(c.UserContext(), identity.Credentials{Username: username, Password: password})
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}

		c.Locals("account_id", user.ID)
		c.Locals("username", user.Username)
		return c.Next()
	}
}
