package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
)

// TokenVerifier resolves a bearer token into an actor.
type TokenVerifier interface {
	Verify(token string) (*authDomain.Actor, error)
}

// identityClaims are the claims issued by the upstream authentication layer.
type identityClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier returns a verifier for HS256 tokens signed with secret. Issuer and
// audience are checked when non-empty. Tokens must carry an expiry.
func NewJWTVerifier(secret, issuer, audience string) TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &jwtVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

func (v *jwtVerifier) Verify(token string) (*authDomain.Actor, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", authDomain.ErrInvalidToken)
	}

	var claims identityClaims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authDomain.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: sub and tenant_id claims are required", authDomain.ErrInvalidToken)
	}

	return &authDomain.Actor{ID: claims.Subject, TenantID: claims.TenantID}, nil
}
