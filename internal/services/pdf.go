package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const pdfMIME = "application/pdf"

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// CheckUpload rejects payloads that are empty, larger than limit, or not a
// PDF by content sniffing. A limit <= 0 disables the size check.
func (s *PDFService) CheckUpload(data []byte, limit int64) error {
	if len(data) == 0 {
		return errorf(ErrValidation, "O arquivo PDF está vazio")
	}
	if limit > 0 && int64(len(data)) > limit {
		return SizeLimitError(limit)
	}
	if mt := mimetype.Detect(data); !mt.Is(pdfMIME) {
		return errorf(ErrValidation, "Por favor, selecione um arquivo PDF (recebido %s)", mt.String())
	}
	return nil
}

// SizeLimitError reports an upload over limit bytes.
func SizeLimitError(limit int64) error {
	return errorf(ErrValidation, "O arquivo deve ter no máximo %s", humanize.Bytes(uint64(limit)))
}

// ExtractText returns the text of every page in order, pages joined by a
// single space. Blank pages are skipped. Any unreadable page fails the whole
// extraction.
func (s *PDFService) ExtractText(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", newError(ErrParse, msgParse, fmt.Errorf("empty pdf content"))
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newError(ErrParse, msgParse, fmt.Errorf("decode pdf: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", newError(ErrParse, msgParse, fmt.Errorf("open pdf: %w", err))
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", newError(ErrParse, msgParse, fmt.Errorf("page %d: missing page object", i))
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", newError(ErrParse, msgParse, fmt.Errorf("page %d: %w", i, err))
		}
		// GetPlainText prefixes every text line with a newline.
		pageText = strings.TrimSpace(norm.NFC.String(pageText))
		if pageText == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, " "), nil
}
