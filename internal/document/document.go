// Package document loads local files into plain-text documents for
// indexing.
//
// Loaders are keyed by file extension: PDFs are extracted page by page,
// DOCX archives paragraph by paragraph, HTML through readability content
// extraction, and everything else is read as plain text. LoadDir walks a
// directory and applies the matching loader to every regular file.
package document

import "errors"

// Metadata keys attached to loaded documents. They survive chunking and
// indexing and drive the citations returned with answers.
const (
	// MetaSource is the file name the text came from.
	MetaSource = "source"

	// MetaPage is the 1-based page number, set only by the PDF loader.
	MetaPage = "page"
)

var (
	// ErrNoDocuments indicates the data directory holds no loadable files.
	ErrNoDocuments = errors.New("no documents found")

	// ErrMissingDataDir indicates the data directory does not exist.
	ErrMissingDataDir = errors.New("data directory does not exist")
)

// Document is a unit of loaded text plus its provenance metadata.
type Document struct {
	Content  string
	Metadata map[string]string
}
