package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an opened PDF. Page indices are zero-based.
type Document interface {
	NumPages() int
	Text(page int) (string, error)
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Opener loads a Document from raw bytes.
type Opener interface {
	Open(data []byte) (Document, error)
}

// ErrMalformed marks input that is not a readable PDF.
var ErrMalformed = errors.New("malformed pdf")

var pdfMagic = []byte("%PDF-")

// IsPDFFilename checks the upload's extension.
func IsPDFFilename(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// Sniff reports whether data starts with a PDF header. Some producers emit
// a few junk bytes first, so the header may appear within the first 1KB.
func Sniff(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfMagic)
}

// Validate runs pdfcpu's structural validation in relaxed mode.
func Validate(data []byte) error {
	if !Sniff(data) {
		return fmt.Errorf("%w: missing %%PDF header", ErrMalformed)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
