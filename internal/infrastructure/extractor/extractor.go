package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/edurag/edurag/internal/core/domain"
)

// Extractor dispatches raw file bytes to the per-format converters.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extract(ctx context.Context, data []byte, fileType domain.FileType, filename string, report func(float64)) (string, error) {
	if report == nil {
		report = func(float64) {}
	}

	var (
		text string
		err  error
	)
	switch fileType {
	case domain.FilePDF:
		text, err = extractPDF(ctx, data, report)
	case domain.FileDOCX, domain.FileDOC:
		// legacy .doc goes through the same OOXML reader; genuinely old
		// binary .doc files fail extraction with a clear error
		text, err = extractDOCX(data)
	case domain.FileTXT:
		text, err = extractPlainText(data)
	case domain.FileCSV:
		text, err = extractCSV(data, filename)
	case domain.FileXLSX:
		text, err = extractXLSX(data, filename)
	default:
		return "", domain.WrapError(domain.ErrUnsupportedType, "extract", fmt.Errorf("file type %q", fileType))
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrEmptyContent, "extract", fmt.Errorf("%s produced no text", filename))
	}
	report(1)
	return text, nil
}
