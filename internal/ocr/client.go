// Package ocr extracts text from stored identity document images using a
// tesseract-server HTTP engine.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dtroode/alumni-connect-server/internal/config"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/model"
)

const (
	enginePath = "/tesseract"

	maxImageBytes    = 20 << 20
	maxResponseBytes = 1 << 20
)

type engineOptions struct {
	Languages []string `json:"languages"`
}

type engineResponse struct {
	Data struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"data"`
}

// Client implements verification.Extractor.
type Client struct {
	storage    model.Storage
	httpClient *http.Client
	endpoint   string
	languages  []string
	timeout    time.Duration
	logger     *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client reading images from storage.
func NewClient(storage model.Storage, cfg config.OCR, logger *logger.Logger, opts ...Option) *Client {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	c := &Client{
		storage:    storage,
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(cfg.EngineURL, "/") + enginePath,
		languages:  languages,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Extract downloads imageRef and returns the raw text the engine reads from
// it. Every failure is an *ExtractionError.
func (c *Client) Extract(ctx context.Context, imageRef string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	image, err := c.fetch(ctx, imageRef)
	if err != nil {
		return "", err
	}

	body, contentType, err := c.buildRequestBody(imageRef, image)
	if err != nil {
		return "", newExtractionError(CategoryEngine, imageRef, "failed to build engine request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", newExtractionError(CategoryEngine, imageRef, "failed to create engine request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", newExtractionError(CategoryTimeout, imageRef, "engine did not answer in time", err)
		}
		return "", newExtractionError(CategoryEngine, imageRef, "engine request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", newExtractionError(CategoryTimeout, imageRef, "engine response timed out", err)
		}
		return "", newExtractionError(CategoryEngine, imageRef, "failed to read engine response", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnsupportedMediaType,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return "", newExtractionError(CategoryBadImage, imageRef,
			fmt.Sprintf("engine rejected image with status %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", newExtractionError(CategoryEngine, imageRef,
			fmt.Sprintf("engine answered with status %d", resp.StatusCode), nil)
	}

	var decoded engineResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", newExtractionError(CategoryEngine, imageRef, "malformed engine response", err)
	}

	if strings.TrimSpace(decoded.Data.Stdout) == "" && strings.TrimSpace(decoded.Data.Stderr) != "" {
		return "", newExtractionError(CategoryBadImage, imageRef, strings.TrimSpace(decoded.Data.Stderr), nil)
	}

	c.logger.Debug("OCR client: text extracted",
		"image_ref", imageRef,
		"chars", len(decoded.Data.Stdout))

	return decoded.Data.Stdout, nil
}

func (c *Client) fetch(ctx context.Context, imageRef string) ([]byte, error) {
	rc, err := c.storage.Download(ctx, imageRef)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newExtractionError(CategoryTimeout, imageRef, "image download timed out", err)
		}
		return nil, newExtractionError(CategoryFetch, imageRef, "failed to download image", err)
	}
	defer rc.Close()

	image, err := io.ReadAll(io.LimitReader(rc, maxImageBytes+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newExtractionError(CategoryTimeout, imageRef, "image download timed out", err)
		}
		return nil, newExtractionError(CategoryFetch, imageRef, "failed to read image", err)
	}
	if len(image) == 0 {
		return nil, newExtractionError(CategoryBadImage, imageRef, "image is empty", nil)
	}
	if len(image) > maxImageBytes {
		return nil, newExtractionError(CategoryBadImage, imageRef, "image is too large", nil)
	}

	return image, nil
}

func (c *Client) buildRequestBody(imageRef string, image []byte) (io.Reader, string, error) {
	options, err := json.Marshal(engineOptions{Languages: c.languages})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode options: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("options", string(options)); err != nil {
		return nil, "", fmt.Errorf("failed to write options field: %w", err)
	}
	part, err := w.CreateFormFile("file", path.Base(imageRef))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
