package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/api/http/response"
	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

const (
	msgInvalidUserID = "Invalid user id."
	msgUserDeleted   = "User deleted."
	msgUserVerified  = "User verified."
)

// AdminService is the part of the account service used by moderators.
type AdminService interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Verify(ctx context.Context, id uuid.UUID) (model.Account, error)
	Delete(ctx context.Context, id uuid.UUID) (model.Account, error)
}

// Admin serves moderation endpoints. Routes must be guarded by
// authentication and the admin role.
type Admin struct {
	accounts AdminService
	evidence EvidenceService
	logger   *logger.Logger
}

// NewAdmin creates an Admin handler.
func NewAdmin(accounts AdminService, evidence EvidenceService, logger *logger.Logger) *Admin {
	return &Admin{
		accounts: accounts,
		evidence: evidence,
		logger:   logger,
	}
}

type listResponse struct {
	Count int           `json:"count"`
	Users []accountView `json:"users"`
}

type verifiedUser struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type verifyResponse struct {
	Message string       `json:"message"`
	User    verifiedUser `json:"user"`
}

// List handles GET /api/admin/users.
func (h *Admin) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	users := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, newAccountView(a))
	}
	response.JSON(w, http.StatusOK, listResponse{Count: len(users), Users: users})
}

// Delete handles DELETE /api/admin/users/{id}. The stored ID card goes with
// the account.
func (h *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Delete(r.Context(), id)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	h.evidence.Discard(context.WithoutCancel(r.Context()), account.EvidenceImageRef)

	response.JSON(w, http.StatusOK, response.Message{Message: msgUserDeleted})
}

// Verify handles POST /api/admin/verify/{id}.
func (h *Admin) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Verify(r.Context(), id)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, verifyResponse{
		Message: msgUserVerified,
		User: verifiedUser{
			ID:    account.ID,
			Email: account.Email,
			Role:  account.Role,
		},
	})
}

// Evidence handles GET /api/admin/users/{id}/evidence and streams the
// uploaded ID card for manual review.
func (h *Admin) Evidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	reader, contentType, err := h.evidence.Open(r.Context(), account.EvidenceImageRef)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if n, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("Admin handler: evidence stream interrupted",
			"account_id", id,
			"bytes", n,
			"error", err.Error())
	}
}

func (h *Admin) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, apierror.NewErrInvalidInput(msgInvalidUserID))
		return uuid.Nil, false
	}
	return id, true
}
