package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// loadText reads a file as UTF-8 plain text. This is the fallback for
// every extension without a dedicated loader (.txt, .md, ...).
func loadText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	return []Document{{
		Content:  text,
		Metadata: map[string]string{MetaSource: filepath.Base(path)},
	}}, nil
}
