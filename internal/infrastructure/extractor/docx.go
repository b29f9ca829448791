package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/edurag/edurag/internal/core/domain"
)

// extractDOCX pulls paragraph text out of the OOXML main document part.
// Only w:t runs matter for retrieval; styling and tables' markup are
// dropped, table cell text is kept.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx", errors.New("word/document.xml not found"))
	}

	rc, err := doc.Open()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx", err)
	}
	defer rc.Close()

	text, err := decodeDocumentXML(rc)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "parse docx", err)
	}
	return text, nil
}

func decodeDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
