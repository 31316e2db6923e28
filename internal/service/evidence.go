package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

const msgUnsupportedImage = "Only JPG, PNG, WEBP, BMP or TIFF images are accepted."

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// Evidence stores uploaded identity documents in object storage.
type Evidence struct {
	storage model.Storage
	logger  *logger.Logger
}

func NewEvidence(storage model.Storage, logger *logger.Logger) *Evidence {
	return &Evidence{
		storage: storage,
		logger:  logger,
	}
}

// EvidenceKey builds the object key of a new document: evidence/<role>/<uuid><ext>.
func EvidenceKey(role model.Role, ext string) string {
	return fmt.Sprintf("evidence/%s/%s%s", role, uuid.NewString(), ext)
}

// Upload stores a document uploaded for role and returns its key.
func (s *Evidence) Upload(ctx context.Context, role model.Role, filename, contentType string, size int64, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	canonical, ok := imageExtensions[ext]
	if !ok {
		return "", apierror.NewErrInvalidInput(msgUnsupportedImage)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "application/octet-stream" {
		mediaType = canonical
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", apierror.NewErrInvalidInput(msgUnsupportedImage)
	}

	key := EvidenceKey(role, ext)
	if err := s.storage.Upload(ctx, key, reader, size, mediaType); err != nil {
		s.logger.Error("Evidence service: failed to store document",
			"key", key,
			"error", err.Error())
		return "", apierror.NewErrInternalServerError(fmt.Errorf("failed to store evidence: %w", err))
	}

	s.logger.Debug("Evidence service: document stored",
		"key", key,
		"size", size)

	return key, nil
}

// Open returns the stored document under key with its media type.
func (s *Evidence) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key == "" {
		return nil, "", apierror.NewErrEvidenceNotFound()
	}

	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", apierror.NewErrEvidenceNotFound()
		}
		return nil, "", apierror.NewErrInternalServerError(fmt.Errorf("failed to open evidence: %w", err))
	}

	contentType, ok := imageExtensions[strings.ToLower(filepath.Ext(key))]
	if !ok {
		contentType = "application/octet-stream"
	}
	return reader, contentType, nil
}

// Discard removes a stored document. Failures are only logged.
func (s *Evidence) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Evidence service: failed to discard document",
			"key", key,
			"error", err.Error())
		return
	}
	s.logger.Debug("Evidence service: document discarded",
		"key", key)
}
