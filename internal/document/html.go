package document

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// loadHTML extracts the readable article content from a local HTML file,
// dropping navigation, scripts, and boilerplate.
func loadHTML(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html %s: %w", path, err)
	}
	defer f.Close()

	// readability resolves relative links against the page URL; a file URL
	// keeps them harmless for local content.
	pageURL := &url.URL{Scheme: "file", Path: path}

	article, err := readability.FromReader(f, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract html %s: %w", path, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, nil
	}

	return []Document{{
		Content:  text,
		Metadata: map[string]string{MetaSource: filepath.Base(path)},
	}}, nil
}
