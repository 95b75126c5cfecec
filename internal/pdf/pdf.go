// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf extracts plain text from PDF documents one page at a time.
package pdf

import (
	"fmt"
	"math"
	"os"
	"strings"

	rpdf "rsc.io/pdf"
)

// Document is an open PDF file with per-page text access.
type Document struct {
	f *os.File
	r *rpdf.Reader
}

// Open reads the PDF at path. The caller must Close the document.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat PDF %s: %w", path, err)
	}

	r, err := rpdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing PDF %s: %w", path, err)
	}

	return &Document{f: f, r: r}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.r.NumPage()
}

// PageText returns the plain text of page num (1-based). Blank or
// unparseable pages yield an empty string rather than an error; the
// parser panics on malformed content streams, which is converted to an
// error here.
func (d *Document) PageText(num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting text from page %d: %v", num, r)
		}
	}()

	page := d.r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}

	return assembleText(page.Content().Text), nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// assembleText joins positioned text fragments into lines. Fragments on
// the same baseline are joined with a space when horizontally separated;
// a baseline change starts a new line. Fragments arrive in content-stream
// order, which is reading order for the documents this tool targets.
func assembleText(texts []rpdf.Text) string {
	var b strings.Builder
	var last rpdf.Text

	for i, t := range texts {
		if i > 0 {
			switch {
			case newLine(last, t):
				b.WriteByte('\n')
			case wordGap(last, t):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		last = t
	}

	return b.String()
}

// newLine reports whether t starts a new baseline relative to prev.
func newLine(prev, t rpdf.Text) bool {
	size := prev.FontSize
	if size == 0 {
		size = t.FontSize
	}
	return math.Abs(t.Y-prev.Y) > size*0.5
}

// wordGap reports whether the horizontal distance between prev and t
// warrants a space.
func wordGap(prev, t rpdf.Text) bool {
	size := prev.FontSize
	if size == 0 {
		size = t.FontSize
	}
	return t.X-(prev.X+prev.W) > size*0.2
}
