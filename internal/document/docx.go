package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// loadDOCX extracts paragraph text from a .docx archive.
//
// A docx file is a zip whose word/document.xml holds the body: text lives
// in <w:t> runs, paragraphs end at </w:p>. Streaming the tokenizer avoids
// materializing the full XML tree.
func loadDOCX(path string) ([]Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer archive.Close()

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("docx %s: word/document.xml missing", path)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml of %s: %w", path, err)
	}
	defer rc.Close()

	text, err := extractDOCXText(rc)
	if err != nil {
		return nil, fmt.Errorf("parse document.xml of %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	return []Document{{
		Content:  text,
		Metadata: map[string]string{MetaSource: filepath.Base(path)},
	}}, nil
}

// extractDOCXText walks the document.xml token stream collecting run text.
func extractDOCXText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
