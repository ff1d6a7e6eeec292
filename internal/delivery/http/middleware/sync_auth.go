package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// SyncAuthMiddleware guards the sync trigger with a shared bearer secret.
type SyncAuthMiddleware struct {
	secret string
}

func NewSyncAuthMiddleware(secret string) *SyncAuthMiddleware {
	return &SyncAuthMiddleware{secret: strings.TrimSpace(secret)}
}

func (m *SyncAuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.secret == "" {
			return NewAppError(fiber.StatusInternalServerError, "sync secret not configured", nil)
		}

		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.secret)) != 1 {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil)
		}

		return c.Next()
	}
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
