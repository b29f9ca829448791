package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound        = errors.New("document not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrExtraction         = errors.New("text extraction failed")
	ErrEmptyContent       = errors.New("no usable text content")
	ErrIndexing           = errors.New("indexing failed")
	ErrIndexMisconfigured = errors.New("index misconfigured")
	ErrGeneration         = errors.New("generation failed")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
