package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	pdflib "github.com/ledongthuc/pdf"
)

// FitzOpener opens documents with MuPDF for rendering. Text comes from
// ledongthuc/pdf first, falling back to MuPDF's extractor.
type FitzOpener struct {
	Validate     bool // Run pdfcpu validation before opening
	TextFallback bool // Use MuPDF text when the Go extractor fails or finds nothing
	Log          *slog.Logger
}

func (o *FitzOpener) Open(data []byte) (Document, error) {
	if o.Validate {
		if err := Validate(data); err != nil {
			return nil, err
		}
	} else if !Sniff(data) {
		return nil, fmt.Errorf("%w: missing %%PDF header", ErrMalformed)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrMalformed, err)
	}

	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	d := &fitzDocument{
		doc:          doc,
		pages:        doc.NumPage(),
		textFallback: o.TextFallback,
		log:          log,
	}

	// ledongthuc/pdf reads from an io.ReaderAt, so no temp file is needed.
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if !o.TextFallback {
			doc.Close()
			return nil, fmt.Errorf("%w: read text layer: %v", ErrMalformed, err)
		}
		log.Warn("text reader unavailable, using mupdf text", "error", err)
	} else {
		d.reader = reader
	}

	return d, nil
}

// fitzDocument serializes MuPDF access; a single fz_context is not safe for
// concurrent use.
type fitzDocument struct {
	mu           sync.Mutex
	doc          *fitz.Document
	reader       *pdflib.Reader
	pages        int
	textFallback bool
	log          *slog.Logger
}

func (d *fitzDocument) NumPages() int {
	return d.pages
}

func (d *fitzDocument) Text(page int) (string, error) {
	if page < 0 || page >= d.pages {
		return "", fmt.Errorf("page %d out of range [0,%d)", page, d.pages)
	}

	if d.reader != nil {
		text, err := plainText(d.reader, page+1)
		if err == nil && (strings.TrimSpace(text) != "" || !d.textFallback) {
			return text, nil
		}
		if !d.textFallback {
			return "", fmt.Errorf("extract text page %d: %w", page, err)
		}
		if err != nil {
			d.log.Debug("go text extraction failed, trying mupdf", "page", page, "error", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("mupdf text page %d: %w", page, err)
	}
	return text, nil
}

func (d *fitzDocument) Render(page int, dpi float64) (image.Image, error) {
	if page < 0 || page >= d.pages {
		return nil, fmt.Errorf("page %d out of range [0,%d)", page, d.pages)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d at %.0f dpi: %w", page, dpi, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}

// plainText extracts one page (1-based) with ledongthuc/pdf. The library
// panics on some malformed content streams.
func plainText(r *pdflib.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf text panic: %v", rec)
		}
	}()
	p := r.Page(n)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d has no page object", n)
	}
	return p.GetPlainText(nil)
}
