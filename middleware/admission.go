package middleware

import (
	"fmt"
	"time"

	"civica/models"
	"civica/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// Admit returns a Fiber middleware enforcing `limit` calls per sliding
// `window` for the named action. It keys by authenticated userID (if set in
// c.Locals("userID")) otherwise by remote IP. Rejections carry retry_after
// and map to 429.
func Admit(gate *ratelimit.Gate, action string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var key string
		if uid, ok := c.Locals("userID").(uint); ok {
			key = ratelimit.Key(uid, action)
		} else {
			key = fmt.Sprintf("%s:ip:%s", action, c.IP())
		}

		if err := gate.CheckKey(c.UserContext(), key, limit, window); err != nil {
			return models.RespondDomainError(c, err)
		}
		return c.Next()
	}
}
