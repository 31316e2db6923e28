package ocr

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy of an extraction attempt.
type Category string

const (
	// CategoryFetch means the image could not be read from object storage.
	CategoryFetch Category = "fetch"
	// CategoryEngine means the OCR engine was unreachable or answered with
	// something unusable.
	CategoryEngine Category = "engine"
	// CategoryBadImage means the engine rejected the image itself.
	CategoryBadImage Category = "bad_image"
	// CategoryTimeout means the attempt ran past its deadline.
	CategoryTimeout Category = "timeout"
)

// ExtractionError is returned for every failed Extract call.
type ExtractionError struct {
	Category   Category
	ImageRef   string
	Message    string
	Underlying error
}

func (e *ExtractionError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ocr %s [%s]: %s: %v", e.ImageRef, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ocr %s [%s]: %s", e.ImageRef, e.Category, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Underlying
}

func newExtractionError(category Category, imageRef, message string, underlying error) *ExtractionError {
	return &ExtractionError{
		Category:   category,
		ImageRef:   imageRef,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the failure category from err. Errors that did not come
// from Extract are reported as CategoryEngine.
func CategoryOf(err error) Category {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return CategoryEngine
}
