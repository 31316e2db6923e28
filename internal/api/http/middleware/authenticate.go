package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/api/http/response"
	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

// TokenVerifier validates bearer credentials.
type TokenVerifier interface {
	Verify(token string) (model.Principal, error)
}

// AccountLoader fetches the account a credential was issued for.
type AccountLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Account, error)
}

// Authenticate resolves the bearer credential of a request into a principal.
type Authenticate struct {
	verifier       TokenVerifier
	accounts       AccountLoader
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates an Authenticate middleware.
func NewAuthenticate(
	verifier TokenVerifier,
	accounts AccountLoader,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Authenticate {
	return &Authenticate{
		verifier:       verifier,
		accounts:       accounts,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Handle rejects requests without a valid credential. The principal role is
// taken from the stored account so a deleted account loses access at once.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			response.Error(w, m.logger, apierror.NewErrMissingAuthorizationToken())
			return
		}

		principal, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("Authenticate middleware: credential rejected",
				"error", err.Error())
			response.Error(w, m.logger, apierror.NewErrInvalidAuthorizationToken())
			return
		}

		account, err := m.accounts.GetByID(r.Context(), principal.AccountID)
		if err != nil {
			if apierror.HasCode(err, apierror.CodeNotFound) {
				response.Error(w, m.logger, apierror.NewErrInvalidAuthorizationToken())
				return
			}
			response.Error(w, m.logger, err)
			return
		}

		principal.Role = account.Role
		ctx := m.contextManager.SetPrincipalToContext(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole allows only principals holding one of roles. It must run after
// Authenticate.
func RequireRole(contextManager model.ContextManager, log *logger.Logger, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := contextManager.GetPrincipalFromContext(r.Context())
			if !ok {
				response.Error(w, log, apierror.NewErrMissingAuthorizationToken())
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, log, apierror.NewErrForbidden())
		})
	}
}
