package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionmark/visionmark/internal/domain"
)

// buildPDF writes a minimal n-page PDF with blank pages and a correct xref
// table, returning its path.
func buildPDF(t *testing.T, pageCount int) string {
	t.Helper()

	var body bytes.Buffer
	var offsets []int
	body.WriteString("%PDF-1.4\n")
	addObj := func(s string) {
		offsets = append(offsets, body.Len())
		body.WriteString(s)
	}

	kids := make([]string, pageCount)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pageCount))
	for i := 0; i < pageCount; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>\nendobj\n", 3+i))
	}

	xrefPos := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n", len(offsets)+1)
	body.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&body, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, body.Bytes(), 0o644))
	return path
}

// buildPNG writes a solid white PNG image and returns its path.
func buildPNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "input.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestOpenMissingFile(t *testing.T) {
	doc, err := Open(filepath.Join(t.TempDir(), "missing.pdf"), nil)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, domain.IsNotFound(err))
}

func TestOpenDirectory(t *testing.T) {
	doc, err := Open(t.TempDir(), nil)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, domain.IsNotFound(err))
}

func TestOpenUnsupportedExtension(t *testing.T) {
	tests := []string{"notes.txt", "report.docx", "archive.pdf.gz", "noextension"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

			doc, err := Open(path, nil)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, domain.IsUnsupportedFormat(err))
		})
	}
}

func TestOpenPDF(t *testing.T) {
	doc, err := Open(buildPDF(t, 2), nil)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })

	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, KindPDF, doc.Kind())
	assert.NotNil(t, doc.pages)
}

func TestOpenStandaloneImage(t *testing.T) {
	doc, err := Open(buildPNG(t, 64, 64), nil)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })

	// A standalone raster opens as a single synthetic page without an
	// embedded-image reader.
	assert.Equal(t, 1, doc.PageCount())
	assert.Equal(t, KindImage, doc.Kind())
	assert.Nil(t, doc.pages)
}

func TestSupportedExtensionsClassification(t *testing.T) {
	assert.Equal(t, KindPDF, supportedExtensions[".pdf"])
	assert.Equal(t, KindImage, supportedExtensions[".png"])
	assert.Equal(t, KindImage, supportedExtensions[".jpg"])
	assert.Equal(t, KindImage, supportedExtensions[".jpeg"])
	_, ok := supportedExtensions[".gif"]
	assert.False(t, ok)
}
