package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/verification"
)

const (
	msgRegistrationFieldsRequired = "Name, email & password are required."
	msgLoginFieldsRequired        = "Email and password are required."
	msgInvalidEmail               = "Invalid email address."
	msgInvalidWorkEmail           = "Invalid work email address."
	msgUnsupportedRole            = "Unsupported role."
)

// Verifier evaluates registration evidence.
type Verifier interface {
	Validate(req verification.Request) error
	Verify(ctx context.Context, req verification.Request) (model.VerificationOutcome, error)
}

// RegistrationRecorder receives a signal for every created account.
type RegistrationRecorder interface {
	IncrementRegistered(role model.Role, verified bool)
}

type noopRegistrationRecorder struct{}

func (noopRegistrationRecorder) IncrementRegistered(model.Role, bool) {}

// Account issues, authenticates and administers member accounts.
type Account struct {
	store    model.AccountStore
	verifier Verifier
	hasher   model.PasswordHasher
	issuer   model.CredentialIssuer
	recorder RegistrationRecorder
	logger   *logger.Logger
	now      func() time.Time
}

// NewAccount creates an Account service. A nil recorder disables metrics.
func NewAccount(
	store model.AccountStore,
	verifier Verifier,
	hasher model.PasswordHasher,
	issuer model.CredentialIssuer,
	recorder RegistrationRecorder,
	logger *logger.Logger,
) *Account {
	if recorder == nil {
		recorder = noopRegistrationRecorder{}
	}
	return &Account{
		store:    store,
		verifier: verifier,
		hasher:   hasher,
		issuer:   issuer,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the submission, evaluates its evidence and creates the
// account. Evidence that cannot be evaluated never blocks creation: the
// account is created unverified instead.
func (s *Account) Register(ctx context.Context, in model.RegistrationInput) (model.Registration, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return model.Registration{}, apierror.NewErrInvalidInput(msgRegistrationFieldsRequired)
	}

	email := NormalizeEmail(in.Email)
	if !govalidator.IsEmail(email) {
		return model.Registration{}, apierror.NewErrInvalidInput(msgInvalidEmail)
	}

	role, err := model.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		s.logger.Debug("Account service: unsupported role",
			"role", in.Role,
			"error", err.Error())
		return model.Registration{}, apierror.NewErrInvalidInput(msgUnsupportedRole)
	}
	if role == model.RoleAdmin {
		s.logger.Warn("Account service: admin registration attempt rejected",
			"email", email)
		return model.Registration{}, apierror.NewErrAdminRegistration()
	}

	req := verification.Request{
		Role:        role,
		Name:        name,
		EvidenceRef: in.EvidenceImageRef,
	}
	account := model.Account{
		Name:             name,
		Email:            email,
		Role:             role,
		EvidenceImageRef: in.EvidenceImageRef,
	}

	// Only the fields belonging to the role are kept.
	switch role {
	case model.RoleStudent:
		rollNumber := strings.TrimSpace(in.RollNumber)
		req.RollNumber = rollNumber
		if rollNumber != "" {
			account.RollNumber = &rollNumber
		}
	case model.RoleAlumni:
		workEmail := NormalizeEmail(in.WorkEmail)
		if workEmail != "" && !govalidator.IsEmail(workEmail) {
			return model.Registration{}, apierror.NewErrInvalidInput(msgInvalidWorkEmail)
		}
		req.GraduationYear = in.GraduationYear
		req.WorkEmail = workEmail
		account.GraduationYear = in.GraduationYear
		account.WorkEmail = workEmail
		account.CurrentCompany = strings.TrimSpace(in.CurrentCompany)
	}

	if err := s.verifier.Validate(req); err != nil {
		return model.Registration{}, s.inputError(err)
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		s.logger.Info("Account service: email already registered",
			"email", email)
		return model.Registration{}, apierror.NewErrEmailIsTaken(email)
	} else if !errors.Is(err, model.ErrNotFound) {
		s.logger.Error("Account service: failed to check email",
			"email", email,
			"error", err.Error())
		return model.Registration{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account by email: %w", err))
	}

	outcome, err := s.verifier.Verify(ctx, req)
	if err != nil {
		return model.Registration{}, s.inputError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("Account service: failed to hash password",
			"error", err.Error())
		return model.Registration{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now().UTC()
	account.ID = uuid.New()
	account.PasswordHash = hash
	account.Verified = outcome.Verified
	account.CreatedAt = now
	account.UpdatedAt = now

	// The credential is issued first so a failure leaves no row behind.
	token, err := s.issuer.Issue(account.ID, account.Role)
	if err != nil {
		s.logger.Error("Account service: failed to issue credential",
			"account_id", account.ID,
			"error", err.Error())
		return model.Registration{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to issue credential: %w", err))
	}

	saved, err := s.store.Create(ctx, account)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			s.logger.Info("Account service: lost registration race for email",
				"email", email)
			return model.Registration{}, apierror.NewErrEmailIsTaken(email)
		}
		s.logger.Error("Account service: failed to create account",
			"email", email,
			"error", err.Error())
		return model.Registration{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to create account: %w", err))
	}

	s.recorder.IncrementRegistered(saved.Role, saved.Verified)
	s.logger.Info("Account service: account registered",
		"account_id", saved.ID,
		"role", saved.Role,
		"verified", saved.Verified,
		"reason", outcome.Reason)

	return model.Registration{
		Account: saved,
		Token:   token,
		Outcome: outcome,
	}, nil
}

// Login checks the password of the account registered under in.Email.
func (s *Account) Login(ctx context.Context, in model.LoginInput) (model.Session, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return model.Session{}, apierror.NewErrInvalidInput(msgLoginFieldsRequired)
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Session{}, apierror.NewErrUserNotFound(email)
		}
		s.logger.Error("Account service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.Session{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account by email: %w", err))
	}

	if err := s.hasher.Compare(account.PasswordHash, in.Password); err != nil {
		if errors.Is(err, model.ErrAuthenticationFailed) {
			s.logger.Info("Account service: wrong password",
				"account_id", account.ID)
			return model.Session{}, apierror.NewErrInvalidCredentials()
		}
		return model.Session{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to compare password: %w", err))
	}

	token, err := s.issuer.Issue(account.ID, account.Role)
	if err != nil {
		s.logger.Error("Account service: failed to issue credential",
			"account_id", account.ID,
			"error", err.Error())
		return model.Session{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to issue credential: %w", err))
	}

	s.logger.Debug("Account service: login succeeded",
		"account_id", account.ID)

	return model.Session{Account: account, Token: token}, nil
}

// GetByID returns the account with id.
func (s *Account) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apierror.NewErrUserNotFound(id.String())
		}
		return model.Account{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account by id: %w", err))
	}
	return account, nil
}

// List returns every account, newest first.
func (s *Account) List(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Account service: failed to list accounts",
			"error", err.Error())
		return nil, apierror.NewErrInternalServerError(fmt.Errorf("failed to list accounts: %w", err))
	}
	return accounts, nil
}

// Verify marks the account as verified regardless of its evidence.
func (s *Account) Verify(ctx context.Context, id uuid.UUID) (model.Account, error) {
	account, err := s.store.SetVerified(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apierror.NewErrUserNotFound(id.String())
		}
		s.logger.Error("Account service: failed to verify account",
			"account_id", id,
			"error", err.Error())
		return model.Account{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to verify account: %w", err))
	}

	s.logger.Info("Account service: account verified manually",
		"account_id", id)

	return account, nil
}

// Delete removes the account and returns it as it was before removal.
func (s *Account) Delete(ctx context.Context, id uuid.UUID) (model.Account, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Account{}, err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apierror.NewErrUserNotFound(id.String())
		}
		s.logger.Error("Account service: failed to delete account",
			"account_id", id,
			"error", err.Error())
		return model.Account{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to delete account: %w", err))
	}

	s.logger.Info("Account service: account deleted",
		"account_id", id)

	return account, nil
}

// EnsureAdmin creates a verified admin account for email unless one exists.
// Admins cannot register through the public API, so this is their only entry.
func (s *Account) EnsureAdmin(ctx context.Context, name, email, password string) (model.Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return model.Account{}, fmt.Errorf("admin email and password are required")
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return model.Account{}, fmt.Errorf("email %s belongs to a %s account", email, existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.store.Create(ctx, model.Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("Account service: admin account created",
		"account_id", created.ID,
		"email", email)

	return created, nil
}

func (s *Account) inputError(err error) error {
	var inputErr *verification.InputError
	if errors.As(err, &inputErr) {
		return apierror.NewErrInvalidInput(inputErr.Reason)
	}
	s.logger.Error("Account service: verification failed",
		"error", err.Error())
	return apierror.NewErrInternalServerError(fmt.Errorf("failed to verify evidence: %w", err))
}
