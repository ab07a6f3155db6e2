package chunker

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/regsplit/internal/document"
	"github.com/dgallion1/regsplit/internal/marker"
)

func pagesFrom(texts ...string) []document.PageText {
	pages := make([]document.PageText, len(texts))
	for i, t := range texts {
		pages[i] = document.PageText{Index: i, Text: t}
	}
	return pages
}

func reg(n string) string {
	return "Registration Number: " + n
}

func TestChunk_SingleMarkerWithTrailingPages(t *testing.T) {
	res := Chunk(pagesFrom(reg("RA1"), "page two", "page three", ""), marker.New(marker.Strict))

	require.Len(t, res.Groups, 1)
	assert.Equal(t, "RA1", res.Groups[0].RegistrationNumber)
	assert.Equal(t, []int{0, 1, 2, 3}, res.Groups[0].Pages)
	assert.Empty(t, res.Orphans)
}

func TestChunk_MultipleGroups(t *testing.T) {
	res := Chunk(pagesFrom(reg("RA1"), "x", reg("RA2"), reg("RA3"), "y", "z"), marker.New(marker.Strict))

	want := []document.Group{
		{RegistrationNumber: "RA1", Pages: []int{0, 1}},
		{RegistrationNumber: "RA2", Pages: []int{2}},
		{RegistrationNumber: "RA3", Pages: []int{3, 4, 5}},
	}
	assert.Equal(t, want, res.Groups)
}

func TestChunk_OrphansBeforeFirstMarker(t *testing.T) {
	res := Chunk(pagesFrom("cover", "index", reg("RA9"), "body"), marker.New(marker.Strict))

	assert.Equal(t, []int{0, 1}, res.Orphans)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []int{2, 3}, res.Groups[0].Pages)
}

func TestChunk_NoMarkers(t *testing.T) {
	res := Chunk(pagesFrom("a", "b", "c"), marker.New(marker.Strict))
	assert.Empty(t, res.Groups)
	assert.Len(t, res.Orphans, 3)
}

func TestChunk_EmptyInput(t *testing.T) {
	res := Chunk(nil, marker.New(marker.Strict))
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Orphans)
}

func TestChunk_RepeatedRegistrationStartsNewGroup(t *testing.T) {
	res := Chunk(pagesFrom(reg("RA1"), reg("RA1")), marker.New(marker.Strict))
	assert.Len(t, res.Groups, 2)
}

func TestChunk_NonConsecutiveIndices(t *testing.T) {
	pages := []document.PageText{
		{Index: 2, Text: reg("RA1")},
		{Index: 5, Text: ""},
		{Index: 9, Text: reg("RA2")},
	}
	res := Chunk(pages, marker.New(marker.Strict))
	require.Len(t, res.Groups, 2)
	assert.Equal(t, []int{2, 5}, res.Groups[0].Pages)
}

func TestChunk_OutOfOrderPageIsOrphaned(t *testing.T) {
	pages := []document.PageText{
		{Index: 0, Text: reg("RA1")},
		{Index: 1, Text: ""},
		{Index: 1, Text: reg("RA2")},
		{Index: 2, Text: ""},
	}
	res := Chunk(pages, marker.New(marker.Strict))
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []int{0, 1, 2}, res.Groups[0].Pages)
	assert.Equal(t, []int{1}, res.Orphans)
}

// Concatenated group pages must be strictly increasing and cover exactly the
// pages from the first marker onward.
func TestChunk_PartitionInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	m := marker.New(marker.Strict)

	for iter := range 200 {
		n := r.IntN(30)
		texts := make([]string, n)
		first := -1
		for i := range texts {
			if r.IntN(4) == 0 {
				texts[i] = reg(fmt.Sprintf("RA%d", i))
				if first < 0 {
					first = i
				}
			}
		}
		res := Chunk(pagesFrom(texts...), m)

		var all []int
		for _, g := range res.Groups {
			require.NotEmpty(t, g.Pages, "iter %d: empty group %q", iter, g.RegistrationNumber)
			all = append(all, g.Pages...)
		}
		for i := 1; i < len(all); i++ {
			require.Greater(t, all[i], all[i-1], "iter %d: pages not strictly increasing: %v", iter, all)
		}

		wantCovered := 0
		if first >= 0 {
			wantCovered = n - first
		}
		require.Len(t, all, wantCovered, "iter %d", iter)
		require.Equal(t, n, len(all)+len(res.Orphans), "iter %d: groups+orphans", iter)
		if first >= 0 {
			require.Len(t, res.Orphans, first, "iter %d", iter)
		}
	}
}

func TestChunkResult_PageCount(t *testing.T) {
	res := Chunk(pagesFrom("o", reg("RA1"), "a", reg("RA2")), marker.New(marker.Strict))
	assert.Equal(t, 3, res.PageCount())
}
