package auth

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
)

// Verifier turns a bearer token into the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// NewVerifier builds the verifier selected by the auth provider setting.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, gcp config.GCPConfig) (Verifier, error) {
	switch cfg.Provider {
	case config.AuthProviderJWT:
		return NewJWTVerifier(cfg)
	case config.AuthProviderFirebase:
		return NewFirebaseVerifier(ctx, gcp)
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.Provider)
	}
}
