package parser

import (
	"bytes"
	"context"
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

type stubModel struct{}

func (stubModel) StructuredCall(context.Context, []byte, string) (*domain.ImageDescription, error) {
	return &domain.ImageDescription{
		TextDetected:   "Yes",
		TablesDetected: "No",
		ImagesDetected: "No",
		LatexDetected:  "No",
	}, nil
}

func (stubModel) FreeformCall(context.Context, []byte, string) (string, error) {
	return "# Page", nil
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gemini-1.5-pro", cfg.ModelName)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.InDelta(t, 0.7, cfg.TopP, 1e-9)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, 150, cfg.Page.DPI)
	assert.Equal(t, ImageModeNone, cfg.ImageMode)
	assert.False(t, cfg.DetailedExtraction)
}

func TestNewRejectsUnsupportedModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelName = "gpt-4o"

	p, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedModel))
}

func TestNewRejectsInvalidImageMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImageMode = ImageMode("inline")

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestNewRejectsInvalidDPI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Page.DPI = 0

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestNewRejectsInvalidWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableConcurrency = true
	cfg.NumWorkers = 0

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestNewWithInjectedModel(t *testing.T) {
	p, err := New(DefaultConfig(), WithModel(stubModel{}))
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestConvertMissingFile(t *testing.T) {
	p, err := New(DefaultConfig(), WithModel(stubModel{}))
	require.NoError(t, err)

	results, err := p.Convert(context.Background(), "/nonexistent/input.pdf")
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNotFound))
}

// writePNG writes a solid white PNG and returns its path.
func writePNG(t *testing.T, width, height int) string {
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

// writePDF writes a minimal blank-page PDF with the given page count and
// returns its path.
func writePDF(t *testing.T, pageCount int) string {
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

func TestConvertStandaloneImage(t *testing.T) {
	p, err := New(DefaultConfig(), WithModel(stubModel{}))
	require.NoError(t, err)

	results, err := p.Convert(context.Background(), writePNG(t, 100, 100))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].PageIndex)
	assert.Equal(t, "# Page", results[0].Markdown)
}

func TestConvertPDFPageCount(t *testing.T) {
	p, err := New(DefaultConfig(), WithModel(stubModel{}))
	require.NoError(t, err)

	results, err := p.Convert(context.Background(), writePDF(t, 3))
	require.NoError(t, err)

	// One result per source page, in page order.
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, i, res.PageIndex)
	}
}

func TestConvertUnsupportedFormat(t *testing.T) {
	p, err := New(DefaultConfig(), WithModel(stubModel{}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	results, err := p.Convert(context.Background(), path)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedFormat))
}
