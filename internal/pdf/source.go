// Package pdf turns input documents into rendered page images. PDF and
// standalone raster inputs are both opened through MuPDF, so downstream
// components see a uniform page abstraction.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/tsawler/tabula/reader"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// Kind classifies an input document.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// supportedExtensions maps recognized file extensions to their kind.
// Classification is by extension only; file content is never sniffed.
var supportedExtensions = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
}

// Document is an open input with its ordered page sequence. PDF pages share
// the one underlying MuPDF handle, owned by the Document for the run; a
// standalone image opens as a single synthetic page.
type Document struct {
	path      string
	kind      Kind
	doc       *fitz.Document
	pages     *reader.Reader // embedded-image access for PDF inputs, nil otherwise
	pageCount int
	logger    *observability.Logger
}

// Open resolves and opens an input document. It fails with a NotFound error
// when the input does not exist and an UnsupportedFormat error when the
// extension is not a supported PDF or image kind.
func Open(path string, logger *observability.Logger) (*Document, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("pdf")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NotFoundError(fmt.Sprintf("file not found: %s", path), err)
		}
		return nil, domain.NotFoundError(fmt.Sprintf("cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return nil, domain.NotFoundError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := supportedExtensions[ext]
	if !ok {
		return nil, domain.UnsupportedFormatError(fmt.Sprintf("unsupported file type: %s", path), nil)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.ConversionError(fmt.Sprintf("failed to open document: %s", path), err)
	}

	pageCount := doc.NumPage()
	if pageCount == 0 {
		doc.Close()
		return nil, domain.ConversionError(fmt.Sprintf("document has no pages: %s", path), nil)
	}

	d := &Document{
		path:      path,
		kind:      kind,
		doc:       doc,
		pageCount: pageCount,
		logger:    logger,
	}

	// The pure-Go reader gives embedded-image access that the renderer
	// cannot. A parse failure here only disables image extraction.
	if kind == KindPDF {
		pages, err := reader.Open(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).
				Msg("could not open PDF for embedded image extraction")
		} else {
			d.pages = pages
		}
	}

	return d, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Kind returns the classified input kind.
func (d *Document) Kind() Kind {
	return d.kind
}

// Path returns the input path the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// Close releases the underlying document handles.
func (d *Document) Close() error {
	var errs []error

	if d.doc != nil {
		if err := d.doc.Close(); err != nil {
			errs = append(errs, err)
		}
		d.doc = nil
	}
	if d.pages != nil {
		if err := d.pages.Close(); err != nil {
			errs = append(errs, err)
		}
		d.pages = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
