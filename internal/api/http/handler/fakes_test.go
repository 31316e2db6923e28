package handler

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

type fakeAccounts struct {
	registerIn  model.RegistrationInput
	register    func(in model.RegistrationInput) (model.Registration, error)
	loginIn     model.LoginInput
	login       func(in model.LoginInput) (model.Session, error)
	accounts    []model.Account
	listErr     error
	getByID     func(id uuid.UUID) (model.Account, error)
	verify      func(id uuid.UUID) (model.Account, error)
	deleteByID  func(id uuid.UUID) (model.Account, error)
	deletedIDs  []uuid.UUID
	verifiedIDs []uuid.UUID
}

func (f *fakeAccounts) Register(_ context.Context, in model.RegistrationInput) (model.Registration, error) {
	f.registerIn = in
	return f.register(in)
}

func (f *fakeAccounts) Login(_ context.Context, in model.LoginInput) (model.Session, error) {
	f.loginIn = in
	return f.login(in)
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	return f.getByID(id)
}

func (f *fakeAccounts) List(context.Context) ([]model.Account, error) {
	return f.accounts, f.listErr
}

func (f *fakeAccounts) Verify(_ context.Context, id uuid.UUID) (model.Account, error) {
	f.verifiedIDs = append(f.verifiedIDs, id)
	return f.verify(id)
}

func (f *fakeAccounts) Delete(_ context.Context, id uuid.UUID) (model.Account, error) {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteByID(id)
}

type upload struct {
	role        model.Role
	filename    string
	contentType string
	data        []byte
}

type fakeEvidence struct {
	mu        sync.Mutex
	uploads   []upload
	uploadErr error
	discarded []string
	objects   map[string][]byte
	openErr   error
}

func (f *fakeEvidence) Upload(_ context.Context, role model.Role, filename, contentType string, _ int64, reader io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{role: role, filename: filename, contentType: contentType, data: data})
	return "evidence/" + string(role) + "/" + filename, nil
}

func (f *fakeEvidence) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	if f.openErr != nil {
		return nil, "", f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.objects[key])), "image/png", nil
}

func (f *fakeEvidence) Discard(_ context.Context, key string) {
	if key == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, key)
}
