package app

import (
	"errors"

	authService "github.com/allisson/fieldvault/internal/auth/service"
)

// TokenVerifier returns the verifier of the upstream identity tokens.
func (c *Container) TokenVerifier() (authService.TokenVerifier, error) {
	err := c.lazy(&c.tokenVerifierInit, "tokenVerifier", func() error {
		if c.config.AuthJWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is required to verify caller identities")
		}
		c.tokenVerifier = authService.NewJWTVerifier(
			c.config.AuthJWTSecret,
			c.config.AuthJWTIssuer,
			c.config.AuthJWTAudience,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenVerifier, nil
}

// Guard returns the tenant access guard. It holds no state.
func (c *Container) Guard() authService.Guard {
	return authService.NewGuard()
}
