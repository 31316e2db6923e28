package context

import (
	"context"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

type principalKey struct{}

// Manager keeps the authenticated principal on request contexts.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

// NewManager creates a context Manager.
func NewManager() *Manager {
	return &Manager{}
}

// SetPrincipalToContext returns a copy of ctx carrying principal.
func (m *Manager) SetPrincipalToContext(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipalFromContext returns the principal set by the authentication
// middleware, if any.
func (m *Manager) GetPrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(model.Principal)
	return principal, ok
}
