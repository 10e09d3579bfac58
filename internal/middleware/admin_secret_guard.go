package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminSecretHeader = "X-Admin-Secret"
	CtxAdminActorKey  = "admin_actor" // string
)

// X-Admin-Secret を bcrypt ハッシュと照合する。
// 監査ログの actor は X-Admin-Actor（無ければ "admin"）。
func AdminSecretGuard(secretHash string) echo.MiddlewareFunc {
	hash := []byte(secretHash)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := c.Request().Header.Get(AdminSecretHeader)
			if secret == "" || len(hash) == 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			actor := strings.TrimSpace(c.Request().Header.Get("X-Admin-Actor"))
			if actor == "" || len(actor) > 100 {
				actor = "admin"
			}
			c.Set(CtxAdminActorKey, actor)
			return next(c)
		}
	}
}

// AdminSecretGuard が入れた actor
func AdminActor(c echo.Context) string {
	if a, ok := c.Get(CtxAdminActorKey).(string); ok && a != "" {
		return a
	}
	return "admin"
}
