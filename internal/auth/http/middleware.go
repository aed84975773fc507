package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authService "github.com/allisson/fieldvault/internal/auth/service"
	"github.com/allisson/fieldvault/internal/httputil"
)

// IdentityMiddleware resolves the caller from the "Authorization: Bearer <token>"
// header issued by the upstream authentication layer and stores the actor, with the
// client IP, in the request context. Requests without a valid token get a 401 and
// never reach the handlers, so no audit entry is written for them.
func IdentityMiddleware(verifier authService.TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	reject := func(c *gin.Context, err error, reason string) {
		logger.Debug("identity rejected", slog.String("reason", reason), slog.String("path", c.FullPath()))
		httputil.HandleErrorGin(c, err, logger)
		c.Abort()
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, authDomain.ErrMissingToken, "missing or malformed authorization header")
			return
		}

		actor, err := verifier.Verify(token)
		if err != nil {
			reject(c, err, err.Error())
			return
		}
		actor.IP = c.ClientIP()

		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		logger.Debug("identity resolved",
			slog.String("actor_id", actor.ID),
			slog.String("tenant_id", actor.TenantID))

		c.Next()
	}
}

// bearerToken extracts the token of a Bearer authorization header. The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
