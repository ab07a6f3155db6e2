package render

import (
	"context"
	"fmt"
	"image"

	"github.com/dgallion1/regsplit/internal/pdfdoc"
)

// PageError reports the page that failed to rasterize.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Render rasterizes pages in order. It stops at the first failure; there are
// no retries.
func Render(ctx context.Context, doc pdfdoc.Document, pages []int, dpi float64) ([]image.Image, error) {
	images := make([]image.Image, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.Render(p, dpi)
		if err != nil {
			return nil, &PageError{Page: p, Err: err}
		}
		images = append(images, img)
	}
	return images, nil
}
