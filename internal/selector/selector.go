package selector

import (
	"fmt"
	"strings"
)

// Policy decides which pages of a group are rendered.
type Policy int

const (
	// All renders every page.
	All Policy = iota
	// Sparse renders the first page and every second page from the third on.
	// The second page is usually boilerplate.
	Sparse
	// First renders only the first page.
	First
)

func (p Policy) String() string {
	switch p {
	case All:
		return "all"
	case Sparse:
		return "sparse"
	case First:
		return "first"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a request or config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return All, nil
	case "sparse":
		return Sparse, nil
	case "first":
		return First, nil
	default:
		return All, fmt.Errorf("unknown selection policy: %q", s)
	}
}

// Select returns the pages to render, preserving order. A non-empty input
// always yields a non-empty result.
func Select(pages []int, p Policy) []int {
	if len(pages) == 0 {
		return nil
	}
	switch p {
	case First:
		return []int{pages[0]}
	case Sparse:
		if len(pages) <= 2 {
			return append([]int(nil), pages...)
		}
		out := make([]int, 0, (len(pages)+1)/2)
		for i := 0; i < len(pages); i += 2 {
			out = append(out, pages[i])
		}
		return out
	default:
		return append([]int(nil), pages...)
	}
}
