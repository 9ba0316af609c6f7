package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"finassist/internal/auth"
	"finassist/internal/model"
)

// UserLocalKey is where AuthGate stores the resolved *model.User.
const UserLocalKey = "user"

// Resolver maps a bearer token to the user it identifies.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// AuthGate resolves the bearer token of every request into a user and
// stores it for downstream handlers. Resolution errors are passed to the
// app's error handler unchanged.
func AuthGate(r Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fmt.Errorf("%w: missing bearer token", auth.ErrTokenInvalid)
		}
		usr, err := r.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(UserLocalKey, usr)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthGate, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	usr, _ := c.Locals(UserLocalKey).(*model.User)
	return usr
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
