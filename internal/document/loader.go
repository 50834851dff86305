package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader loads documents from a directory, dispatching per extension.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadDir loads every regular file in dir (sorted by name; hidden files
// skipped). It fails when the directory is missing or yields no text so
// startup surfaces misconfiguration instead of serving an empty index.
func (l *Loader) LoadDir(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (add PDF/DOCX/HTML/TXT/MD files first)",
				ErrMissingDataDir, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingDataDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		loaded, err := l.LoadFile(path)
		if err != nil {
			// Keep indexing the rest of the directory on a single bad file.
			l.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}

		l.logger.Debug("loaded file", "path", path, "documents", len(loaded))
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s (add content and rebuild the index)",
			ErrNoDocuments, dir)
	}

	return docs, nil
}

// LoadFile loads a single file with the loader matching its extension.
func (l *Loader) LoadFile(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	case ".html", ".htm":
		return loadHTML(path)
	default:
		return loadText(path)
	}
}
