package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDFFilename(t *testing.T) {
	cases := map[string]bool{
		"letters.pdf":   true,
		"LETTERS.PDF":   true,
		"scan.pdf.docx": false,
		"notes.txt":     false,
		"pdf":           false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsPDFFilename(name), "%q", name)
	}
}

func TestSniff(t *testing.T) {
	assert.True(t, Sniff([]byte("%PDF-1.7\n...")))
	assert.True(t, Sniff(append([]byte("\xef\xbb\xbf  "), []byte("%PDF-1.4")...)), "header after leading junk")
	assert.False(t, Sniff([]byte("PK\x03\x04 not a pdf")))
	assert.False(t, Sniff(nil))
}

func TestValidate_RejectsNonPDF(t *testing.T) {
	assert.ErrorIs(t, Validate([]byte("hello world")), ErrMalformed)
}

func TestValidate_RejectsTruncatedPDF(t *testing.T) {
	assert.ErrorIs(t, Validate([]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")), ErrMalformed)
}

func TestFitzOpener_RejectsNonPDFWithoutValidation(t *testing.T) {
	o := &FitzOpener{Validate: false}
	_, err := o.Open([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrMalformed)
}
