// Package manifest builds the per-request result records that map
// registration numbers to stored image locations.
package manifest

import (
	"fmt"
	"strings"

	"github.com/dgallion1/regsplit/internal/document"
	"github.com/google/uuid"
)

// Record is one student's entry in the manifest.
type Record struct {
	RegNo          string `json:"regNo"`
	ImagePath      string `json:"imagePath"`
	Filename       string `json:"-"`
	PagesProcessed int    `json:"pagesProcessed"`
	TotalPages     int    `json:"totalPages"`
}

// Manifest is the ordered result of one split request.
type Manifest struct {
	Images        []Record `json:"images"`
	TotalStudents int      `json:"totalStudents"`
	OrphanPages   []int    `json:"orphanPages,omitempty"`
}

// New assembles a manifest. Records keep the given order.
func New(records []Record, orphans []int) *Manifest {
	if records == nil {
		records = []Record{}
	}
	return &Manifest{
		Images:        records,
		TotalStudents: len(records),
		OrphanPages:   orphans,
	}
}

// Builder assigns filenames and public locations to composites.
type Builder struct {
	baseURL string

	// NewID returns the random filename suffix.
	NewID func() string
}

// NewBuilder returns a builder that publishes files under publicBaseURL.
func NewBuilder(publicBaseURL string) *Builder {
	return &Builder{
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		NewID:   randomSuffix,
	}
}

// Build creates the manifest record for a composite.
func (b *Builder) Build(c document.Composite) Record {
	name := Filename(c.RegistrationNumber, b.NewID())
	return Record{
		RegNo:          c.RegistrationNumber,
		ImagePath:      b.URL(name),
		Filename:       name,
		PagesProcessed: c.PagesProcessed,
		TotalPages:     c.TotalPages,
	}
}

// URL returns the public location of a stored file.
func (b *Builder) URL(name string) string {
	if b.baseURL == "" {
		return name
	}
	return b.baseURL + "/" + name
}

// Filename joins a registration number and suffix into an output name.
func Filename(regNo, suffix string) string {
	return fmt.Sprintf("%s_%s.jpg", regNo, suffix)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
