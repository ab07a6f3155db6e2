// Package compose stitches rendered pages into one image and encodes it.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 85

// ErrNoImages is returned when Compose is given nothing to stitch.
var ErrNoImages = errors.New("compose: no images")

// Policy controls the post-processing applied to a stitched image.
type Policy int

const (
	// Stack concatenates pages vertically.
	Stack Policy = iota
	// StackCropTopHalf stacks, then keeps only the top half of the canvas.
	StackCropTopHalf
)

func (p Policy) String() string {
	switch p {
	case Stack:
		return "stack"
	case StackCropTopHalf:
		return "crop-top-half"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a request or config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stack", "":
		return Stack, nil
	case "crop-top-half", "crop":
		return StackCropTopHalf, nil
	default:
		return Stack, fmt.Errorf("unknown composition policy: %q", s)
	}
}

// Compose stacks images top to bottom on a white canvas as wide as the
// widest input, centring narrower ones. A single image is returned as is
// under Stack.
func Compose(images []image.Image, p Policy) (image.Image, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	var out image.Image
	if len(images) == 1 {
		out = images[0]
	} else {
		out = stack(images)
	}

	if p == StackCropTopHalf {
		out = cropTopHalf(out)
	}
	return out, nil
}

func stack(images []image.Image) *image.RGBA {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	y := 0
	for _, img := range images {
		b := img.Bounds()
		x := (width - b.Dx()) / 2
		dst := image.Rect(x, y, x+b.Dx(), y+b.Dy())
		xdraw.Draw(canvas, dst, img, b.Min, xdraw.Over)
		y += b.Dy()
	}
	return canvas
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropTopHalf(img image.Image) image.Image {
	b := img.Bounds()
	r := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dy()/2)
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, r.Min, xdraw.Src)
	return dst
}

// Fit scales img down so it is at most maxWidth wide, keeping the aspect
// ratio. Images already narrow enough, and maxWidth <= 0, are returned as is.
func Fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeJPEG writes img as a JPEG. Quality outside 1..100 falls back to
// DefaultQuality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
