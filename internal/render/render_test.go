package render

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/regsplit/internal/pdfdoc/pdfdoctest"
)

func TestRender_InOrder(t *testing.T) {
	doc := pdfdoctest.New("a", "b", "c", "d")
	imgs, err := Render(context.Background(), doc, []int{0, 2, 3}, 72)
	require.NoError(t, err)
	assert.Len(t, imgs, 3)
	assert.Equal(t, []int{0, 2, 3}, doc.Rendered())
}

func TestRender_SameDPISameDimensions(t *testing.T) {
	doc := pdfdoctest.New("a")
	first, err := Render(context.Background(), doc, []int{0}, 150)
	require.NoError(t, err)
	second, err := Render(context.Background(), doc, []int{0}, 150)
	require.NoError(t, err)
	assert.Equal(t, first[0].Bounds(), second[0].Bounds())
	assert.Equal(t, image.Rect(0, 0, 125, 166), first[0].Bounds())
}

func TestRender_FailureNamesPage(t *testing.T) {
	boom := errors.New("bad content stream")
	doc := pdfdoctest.New("a", "b", "c")
	doc.Pages[1].RenderErr = boom

	_, err := Render(context.Background(), doc, []int{0, 1, 2}, 72)
	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Page)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, doc.Rendered(), 1, "rendering must stop after the failure")
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, pdfdoctest.New("a"), []int{0}, 72)
	assert.ErrorIs(t, err, context.Canceled)
}
