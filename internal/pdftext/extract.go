// Package pdftext extracts plain text from PDF files, page by page.
package pdftext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is the extracted text of a PDF.
type Document struct {
	Title string `json:"title,omitempty"`
	Pages []Page `json:"pages"`
}

// Page holds the text of one page. Number is 1-based.
type Page struct {
	Number    int    `json:"page_number"`
	Content   string `json:"content"`
	CharCount int    `json:"char_count"`
}

// ErrMalformed reports a PDF the parser could not walk.
var ErrMalformed = errors.New("malformed PDF")

// Extract opens the PDF at path and returns its text.
// Pages that fail to decode are kept with empty content so numbering stays aligned.
func Extract(path string) (doc Document, err error) {
	// The parser panics on some corrupt cross-reference and object data.
	defer recoverMalformed(path, &err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	doc = Document{Pages: make([]Page, 0, r.NumPage())}
	if info := r.Trailer().Key("Info"); !info.IsNull() {
		doc.Title = strings.TrimSpace(info.Key("Title").Text())
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		var text string
		if !p.V.IsNull() {
			text, _ = p.GetPlainText(nil)
		}
		text = strings.TrimSpace(text)
		doc.Pages = append(doc.Pages, Page{Number: i, Content: text, CharCount: len([]rune(text))})
	}
	return doc, nil
}

func recoverMalformed(path string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("extract %s: %w: %v", path, ErrMalformed, r)
	}
}
