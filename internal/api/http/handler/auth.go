package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dtroode/alumni-connect-server/internal/api/http/response"
	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

const (
	msgInvalidBody        = "Invalid request body."
	msgUploadTooLarge     = "Uploaded file is too large."
	msgBodyTooLarge       = "Request body is too large."
	msgInvalidGradYear    = "Graduation year must be a number."
	msgRegisteredVerified = "Registered & Verified!"
	msgRegisteredPending  = "Registered. Verification pending."
	msgLoggedIn           = "Login successful."
	studentCardField      = "studentIdCardImage"
	alumniCardField       = "idCardImage"
	multipartMemoryBuffer = 1 << 20
)

// AccountService is the part of the account service the auth handler needs.
type AccountService interface {
	Register(ctx context.Context, in model.RegistrationInput) (model.Registration, error)
	Login(ctx context.Context, in model.LoginInput) (model.Session, error)
}

// EvidenceService stores and removes uploaded identity documents.
type EvidenceService interface {
	Upload(ctx context.Context, role model.Role, filename, contentType string, size int64, reader io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Discard(ctx context.Context, key string)
}

// Auth serves registration and login.
type Auth struct {
	accounts       AccountService
	evidence       EvidenceService
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewAuth creates an Auth handler.
func NewAuth(accounts AccountService, evidence EvidenceService, maxUploadBytes int64, logger *logger.Logger) *Auth {
	return &Auth{
		accounts:       accounts,
		evidence:       evidence,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// yearField accepts a graduation year sent either as a JSON number or string.
type yearField struct {
	value *int
}

func (y *yearField) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		y.value = nil
		return nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return apierror.NewErrInvalidInput(msgInvalidGradYear)
	}
	y.value = &year
	return nil
}

type registerRequest struct {
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	Role           string    `json:"role"`
	RollNumber     string    `json:"rollNumber"`
	GraduationYear yearField `json:"graduationYear"`
	CurrentCompany string    `json:"currentCompany"`
	WorkEmail      string    `json:"workEmail"`
}

func (r registerRequest) input() model.RegistrationInput {
	return model.RegistrationInput{
		Name:           r.Name,
		Email:          r.Email,
		Password:       r.Password,
		Role:           r.Role,
		RollNumber:     r.RollNumber,
		GraduationYear: r.GraduationYear.value,
		CurrentCompany: r.CurrentCompany,
		WorkEmail:      r.WorkEmail,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. It accepts multipart forms with
// an optional ID card image or plain JSON without one.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var (
		in  model.RegistrationInput
		err error
	)
	if isMultipart(r) {
		in, err = h.readMultipart(w, r)
	} else {
		in, err = h.readJSON(w, r)
	}
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	registration, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.evidence.Discard(context.WithoutCancel(r.Context()), in.EvidenceImageRef)
		response.Error(w, h.logger, err)
		return
	}

	account := registration.Account
	message := msgRegisteredPending
	if account.Verified {
		message = msgRegisteredVerified
	}
	response.JSON(w, http.StatusCreated, sessionResponse{
		Message: message,
		User: sessionUser{
			ID:         account.ID,
			Name:       account.Name,
			Role:       account.Role,
			IsVerified: account.Verified,
		},
		Token: registration.Token,
	})
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), model.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	account := session.Account
	response.JSON(w, http.StatusOK, sessionResponse{
		Message: msgLoggedIn,
		User: sessionUser{
			ID:         account.ID,
			Name:       account.Name,
			Email:      account.Email,
			Role:       account.Role,
			IsVerified: account.Verified,
		},
		Token: session.Token,
	})
}

func (h *Auth) readJSON(w http.ResponseWriter, r *http.Request) (model.RegistrationInput, error) {
	var req registerRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		return model.RegistrationInput{}, err
	}
	return req.input(), nil
}

// decodeJSON reads a JSON body capped at the upload limit.
func (h *Auth) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.NewErrInvalidInput(msgBodyTooLarge)
		}
		return apierror.NewErrInvalidInput(msgInvalidBody)
	}
	return nil
}

func (h *Auth) readMultipart(w http.ResponseWriter, r *http.Request) (model.RegistrationInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryBuffer); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.RegistrationInput{}, apierror.NewErrInvalidInput(msgUploadTooLarge)
		}
		return model.RegistrationInput{}, apierror.NewErrInvalidInput(msgInvalidBody)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	in := model.RegistrationInput{
		Name:           r.FormValue("name"),
		Email:          r.FormValue("email"),
		Password:       r.FormValue("password"),
		Role:           strings.TrimSpace(r.FormValue("role")),
		RollNumber:     r.FormValue("rollNumber"),
		CurrentCompany: r.FormValue("currentCompany"),
		WorkEmail:      r.FormValue("workEmail"),
	}
	if raw := strings.TrimSpace(r.FormValue("graduationYear")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return model.RegistrationInput{}, apierror.NewErrInvalidInput(msgInvalidGradYear)
		}
		in.GraduationYear = &year
	}

	role, err := model.ParseRole(in.Role)
	if err != nil || role == model.RoleAdmin {
		// The account service rejects the role; nothing is uploaded.
		return in, nil
	}

	field := studentCardField
	if role == model.RoleAlumni {
		field = alumniCardField
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return model.RegistrationInput{}, apierror.NewErrInvalidInput(msgInvalidBody)
	}
	defer file.Close()

	key, err := h.evidence.Upload(r.Context(), role, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		return model.RegistrationInput{}, err
	}
	in.EvidenceImageRef = key
	return in, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
