package chunker

import (
	"github.com/dgallion1/regsplit/internal/document"
	"github.com/dgallion1/regsplit/internal/marker"
)

// Chunk walks pages in order and groups them by registration-number marker.
//
// A marker page closes the open group (if any) and opens a new one. Pages
// without a marker join the open group, or become orphans when no group has
// been opened yet. Pages whose index does not increase are treated as orphans
// so emitted groups stay strictly ordered.
func Chunk(pages []document.PageText, m marker.Matcher) document.ChunkResult {
	var res document.ChunkResult
	var open *document.Group
	last := -1

	for _, p := range pages {
		if p.Index <= last {
			res.Orphans = append(res.Orphans, p.Index)
			continue
		}
		last = p.Index

		reg, found := m.Match(p.Text)
		switch {
		case found:
			if open != nil {
				res.Groups = append(res.Groups, *open)
			}
			open = &document.Group{RegistrationNumber: reg, Pages: []int{p.Index}}
		case open != nil:
			open.Pages = append(open.Pages, p.Index)
		default:
			res.Orphans = append(res.Orphans, p.Index)
		}
	}

	if open != nil {
		res.Groups = append(res.Groups, *open)
	}
	return res
}
