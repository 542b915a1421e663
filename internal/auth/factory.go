package auth

import (
	"github.com/amelia751/cloudly/internal/config"
)

// NewAuthorizer picks the authorizer for the environment. Production requires
// JWT_SECRET; development also accepts LocalDevAPIKey.
func NewAuthorizer(cfg *config.Config) (Authorizer, error) {
	var jwtAuth *JWTAuthorizer
	if cfg.JWTSecret != "" {
		a, err := NewJWTAuthorizer(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		jwtAuth = a
	}

	switch {
	case cfg.IsProduction():
		if jwtAuth == nil {
			return nil, ErrMissingSecret
		}
		return jwtAuth, nil
	case jwtAuth != nil:
		return chain{jwtAuth, NewMockAuthorizer()}, nil
	default:
		return NewMockAuthorizer(), nil
	}
}
