package document

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts plain text from a PDF, one Document per page.
// Pages with no extractable text are skipped.
func loadPDF(path string) ([]Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	source := filepath.Base(path)

	var docs []Document
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", pageNum, source, err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, Document{
			Content: text,
			Metadata: map[string]string{
				MetaSource: source,
				MetaPage:   strconv.Itoa(pageNum),
			},
		})
	}

	return docs, nil
}
