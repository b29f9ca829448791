package extractor

import (
	"errors"
	"unicode/utf8"

	"github.com/edurag/edurag/internal/core/domain"
)

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.WrapError(domain.ErrExtraction, "read text file", errors.New("content is not valid UTF-8"))
	}
	return string(data), nil
}
