package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

type sessionUser struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Role       model.Role `json:"role"`
	IsVerified bool       `json:"isVerified"`
}

type sessionResponse struct {
	Message string      `json:"message"`
	User    sessionUser `json:"user"`
	Token   string      `json:"token"`
}

// accountView is the admin listing shape. It never carries the password hash.
type accountView struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           model.Role `json:"role"`
	RollNumber     *string    `json:"rollNumber,omitempty"`
	GraduationYear *int       `json:"graduationYear,omitempty"`
	CurrentCompany string     `json:"currentCompany,omitempty"`
	WorkEmail      string     `json:"workEmail,omitempty"`
	HasIDCard      bool       `json:"hasIdCard"`
	IsVerified     bool       `json:"isVerified"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func newAccountView(a model.Account) accountView {
	return accountView{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		RollNumber:     a.RollNumber,
		GraduationYear: a.GraduationYear,
		CurrentCompany: a.CurrentCompany,
		WorkEmail:      a.WorkEmail,
		HasIDCard:      a.EvidenceImageRef != "",
		IsVerified:     a.Verified,
		CreatedAt:      a.CreatedAt,
	}
}
