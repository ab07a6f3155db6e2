package document

import "image"

// PageText is the extracted text of one source page.
type PageText struct {
	Index int    // Zero-based page index in the source PDF
	Text  string // Extracted text (empty when the page has none)
}

// Group is the run of pages belonging to one registration number.
type Group struct {
	RegistrationNumber string // Normalized marker token, set once at creation
	Pages              []int  // Strictly increasing source page indices, never empty
}

// ChunkResult is the output of a chunking pass.
type ChunkResult struct {
	Groups  []Group // In source order
	Orphans []int   // Pages seen before the first marker
}

// PageCount returns the number of pages covered by all groups.
func (r ChunkResult) PageCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Pages)
	}
	return n
}

// Composite is the stitched image for one group, ready for the manifest.
type Composite struct {
	RegistrationNumber string
	Image              image.Image
	PagesProcessed     int // Pages actually rendered after selection
	TotalPages         int // Pages in the group
}
