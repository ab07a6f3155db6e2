package pdfdoc_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/regsplit/internal/marker"
	"github.com/dgallion1/regsplit/internal/pdfdoc"
	"github.com/dgallion1/regsplit/internal/pdfdoc/pdfdoctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = pdfdoctest.BuildPDF(
	"Registration Number: RA101",
	"Answer sheet continued",
	"Registration Number: RA102",
)

func TestValidate_AcceptsWellFormedPDF(t *testing.T) {
	assert.NoError(t, pdfdoc.Validate(sample))
}

func TestFitzOpener_TextAndRender(t *testing.T) {
	m := marker.New(marker.Strict)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, fallback := range []bool{false, true} {
		o := &pdfdoc.FitzOpener{Validate: true, TextFallback: fallback, Log: log}
		doc, err := o.Open(sample)
		require.NoError(t, err, "fallback=%v", fallback)

		require.Equal(t, 3, doc.NumPages())

		var regs []string
		for i := range doc.NumPages() {
			text, err := doc.Text(i)
			require.NoError(t, err, "fallback=%v page %d", fallback, i)
			if reg, ok := m.Match(text); ok {
				regs = append(regs, reg)
			}
		}
		assert.Equal(t, []string{"RA101", "RA102"}, regs, "fallback=%v", fallback)

		first, err := doc.Render(0, 72)
		require.NoError(t, err)
		again, err := doc.Render(0, 72)
		require.NoError(t, err)
		assert.Equal(t, first.Bounds(), again.Bounds())
		assert.Equal(t, pdfdoctest.PageWidth, first.Bounds().Dx())
		assert.Equal(t, pdfdoctest.PageHeight, first.Bounds().Dy())

		_, err = doc.Render(3, 72)
		assert.Error(t, err)
		_, err = doc.Text(-1)
		assert.Error(t, err)

		require.NoError(t, doc.Close())
	}
}

func TestFitzOpener_RenderScalesWithDPI(t *testing.T) {
	doc, err := (&pdfdoc.FitzOpener{}).Open(sample)
	require.NoError(t, err)
	defer doc.Close()

	img, err := doc.Render(1, 144)
	require.NoError(t, err)
	assert.Equal(t, 2*pdfdoctest.PageWidth, img.Bounds().Dx())
	assert.Equal(t, 2*pdfdoctest.PageHeight, img.Bounds().Dy())
}
