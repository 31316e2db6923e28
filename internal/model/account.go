package model

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	List(ctx context.Context) ([]Account, error)
	SetVerified(ctx context.Context, id uuid.UUID) (Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Role is the declared membership kind of an account.
type Role string

const (
	// RoleStudent is a currently enrolled student.
	RoleStudent Role = "student"
	// RoleAlumni is a graduate of the institution.
	RoleAlumni Role = "alumni"
	// RoleAdmin moderates the platform. It cannot be self-assigned.
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw role value. An empty value defaults to RoleStudent.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case "":
		return RoleStudent, nil
	case RoleStudent, RoleAlumni, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Account represents a registered member together with its verification state.
type Account struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     []byte
	Role             Role
	RollNumber       *string
	GraduationYear   *int
	CurrentCompany   string
	WorkEmail        string
	EvidenceImageRef string
	Verified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RegistrationInput carries the fields submitted on sign up. EvidenceImageRef
// is an already stored object key, empty when no document was uploaded.
type RegistrationInput struct {
	Name             string
	Email            string
	Password         string
	Role             string
	RollNumber       string
	GraduationYear   *int
	WorkEmail        string
	CurrentCompany   string
	EvidenceImageRef string
}

// Registration is the result of a successful sign up.
type Registration struct {
	Account Account
	Token   string
	Outcome VerificationOutcome
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	Account Account
	Token   string
}

// PasswordHasher hides how account secrets are stored and compared.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(hash []byte, password string) error
}
