package model

import "github.com/google/uuid"

// Principal is the identity carried by a verified session credential.
type Principal struct {
	AccountID uuid.UUID
	Role      Role
}

// CredentialIssuer signs and verifies bearer credentials.
type CredentialIssuer interface {
	Issue(accountID uuid.UUID, role Role) (string, error)
	Verify(token string) (Principal, error)
}
