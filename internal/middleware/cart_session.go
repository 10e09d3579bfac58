package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartCookieName   = "cart_session"
	CtxCartSessionID = "cart_session_id" // string
	cartSessionTTL   = 30 * 24 * time.Hour
)

// cart_session クッキー（HS256）からカートのセッションIDを取り出す。
// 無い・壊れている・期限切れなら新しいセッションを発行してクッキーを付け直す。
func CartSession(secret string, secure bool, now func() time.Time) echo.MiddlewareFunc {
	key := []byte(secret)
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(CartCookieName); err == nil && ck.Value != "" {
				sid = parseCartToken(ck.Value, key, now())
			}

			if sid == "" {
				sid = uuid.NewString()
				exp := now().Add(cartSessionTTL)
				token, err := signCartToken(sid, key, now(), exp)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
				}
				c.SetCookie(&http.Cookie{
					Name:     CartCookieName,
					Value:    token,
					Path:     "/",
					Expires:  exp,
					MaxAge:   int(cartSessionTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxCartSessionID, sid)
			return next(c)
		}
	}
}

func CartSessionID(c echo.Context) (string, bool) {
	sid, ok := c.Get(CtxCartSessionID).(string)
	return sid, ok && sid != ""
}

func signCartToken(sid string, key []byte, iat, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// 検証できなければ空文字
func parseCartToken(raw string, key []byte, now time.Time) string {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil || token == nil || !token.Valid {
		return ""
	}
	if !claims.VerifyExpiresAt(now, true) {
		return ""
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return ""
	}
	return claims.Subject
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
