package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/edurag/edurag/internal/core/domain"
)

func extractPDF(ctx context.Context, data []byte, report func(float64)) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}

	total := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages, the rest of the document is still useful
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
		if i%5 == 0 || i == total {
			report(float64(i) / float64(total))
		}
	}
	return b.String(), nil
}
