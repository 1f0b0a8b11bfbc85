package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxPDFBytes = 16 * 1024 * 1024
	maxTextRun  = 24000
)

// Error reports a PDF that could not be opened, parsed, or yielded no text.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("extract %s: %v", e.Path, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

type Result struct {
	Text      string
	Pages     int
	Truncated bool
}

// Extract pulls plain text from the PDF at path. Pages whose extraction
// yields no text are skipped; the remaining pages are joined with a single
// newline. The extracted run is capped to bound downstream prompt cost.
func Extract(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, &Error{Path: path, Err: err}
	}
	if info.Size() > maxPDFBytes {
		return Result{}, &Error{Path: path, Err: fmt.Errorf("pdf too large: %d bytes", info.Size())}
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, &Error{Path: path, Err: err}
	}
	defer f.Close()

	total := reader.NumPage()
	var pages []string
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only or damaged pages are skipped rather than failing
			// the whole document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return Result{}, &Error{Path: path, Err: errors.New("no extractable text found")}
	}
	return truncate(strings.Join(pages, "\n"), total), nil
}

func truncate(text string, pages int) Result {
	if len(text) <= maxTextRun {
		return Result{Text: text, Pages: pages}
	}
	prefix := text[:maxTextRun]
	// Avoid cutting in the middle of a rune sequence.
	prefix = string(bytes.Runes([]byte(prefix)))
	return Result{
		Text:      prefix + "\n\n[TRUNCATED]",
		Pages:     pages,
		Truncated: true,
	}
}
