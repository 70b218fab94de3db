package adapter

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// PDFExtractor returns the plain text of each page of a PDF document
type PDFExtractor func(r io.ReaderAt, size int64) ([]string, error)

// ExtractPDFPages is the PDFExtractor backed by ledongthuc/pdf. Pages
// without text are returned as empty strings to keep page numbering.
func ExtractPDFPages(r io.ReaderAt, size int64) (pages []string, err error) {
	// the parser panics on some broken streams
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = goerr.New("malformed pdf", goerr.V("panic", fmt.Sprint(rec)))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open pdf")
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract page text", goerr.V("page", i))
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return pages, nil
}
