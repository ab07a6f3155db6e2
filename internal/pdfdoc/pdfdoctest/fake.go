// Package pdfdoctest provides an in-memory pdfdoc.Document for tests.
package pdfdoctest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/dgallion1/regsplit/internal/pdfdoc"
)

// Page describes one fake page.
type Page struct {
	Text string
	// Width and Height are the page size at 72 DPI. Zero means 60x80.
	Width, Height int
	// RenderErr, when set, is returned by Render for this page.
	RenderErr error
	// TextErr, when set, is returned by Text for this page.
	TextErr error
}

// Document is a fake pdfdoc.Document. Each page renders as a solid colour
// scaled by dpi/72.
type Document struct {
	Pages []Page

	mu       sync.Mutex
	rendered []int
	closed   atomic.Bool
}

var _ pdfdoc.Document = (*Document)(nil)

// New builds a document whose pages carry the given texts.
func New(texts ...string) *Document {
	d := &Document{}
	for _, t := range texts {
		d.Pages = append(d.Pages, Page{Text: t})
	}
	return d
}

func (d *Document) NumPages() int { return len(d.Pages) }

func (d *Document) Text(page int) (string, error) {
	if page < 0 || page >= len(d.Pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	p := d.Pages[page]
	if p.TextErr != nil {
		return "", p.TextErr
	}
	return p.Text, nil
}

func (d *Document) Render(page int, dpi float64) (image.Image, error) {
	if d.closed.Load() {
		return nil, errors.New("document closed")
	}
	if page < 0 || page >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	p := d.Pages[page]
	if p.RenderErr != nil {
		return nil, p.RenderErr
	}

	d.mu.Lock()
	d.rendered = append(d.rendered, page)
	d.mu.Unlock()

	w, h := p.Width, p.Height
	if w == 0 {
		w = 60
	}
	if h == 0 {
		h = 80
	}
	scale := dpi / 72
	img := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	c := color.RGBA{R: uint8(page * 40), G: 128, B: 64, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img, nil
}

func (d *Document) Close() error {
	d.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (d *Document) Closed() bool { return d.closed.Load() }

// Rendered returns the pages rendered so far, in call order.
func (d *Document) Rendered() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.rendered...)
}

// Opener returns Doc from Open, or Err when set.
type Opener struct {
	Doc *Document
	Err error
}

func (o *Opener) Open(data []byte) (pdfdoc.Document, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Doc, nil
}
