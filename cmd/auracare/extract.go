package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/auracare/auracare/internal/journal"
)

// maxImportSize bounds journal files read from disk.
const maxImportSize = 5 << 20

// readJournalFile returns the text of a .txt, .md or .pdf file.
func readJournalFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxImportSize {
		return "", fmt.Errorf("%s is larger than %d bytes", path, maxImportSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	var text string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", ".markdown":
		text = string(data)
	case ".pdf":
		if text, err = extractPDF(data); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported file type %q (use .txt, .md or .pdf)", ext)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s contains no text", path)
	}
	if n := utf8.RuneCountInString(text); n > journal.MaxTextLength {
		return "", fmt.Errorf("%s has %d characters, journal entries are limited to %d", path, n, journal.MaxTextLength)
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return strings.Join(strings.Fields(string(b)), " "), nil
}
