package domain

import "strings"

// ImageMode selects how extracted images are referenced in the output markdown.
type ImageMode string

const (
	// ImageModeNone disables image extraction entirely.
	ImageModeNone ImageMode = ""
	// ImageModeURL references extracted images by a stable file locator.
	ImageModeURL ImageMode = "url"
	// ImageModeBase64 inlines extracted images as data URIs.
	ImageModeBase64 ImageMode = "base64"
)

// Valid reports whether the mode is one of the supported values.
func (m ImageMode) Valid() bool {
	switch m {
	case ImageModeNone, ImageModeURL, ImageModeBase64:
		return true
	}
	return false
}

// PageConfig holds page rendering settings for a conversion run.
type PageConfig struct {
	DPI                  int    // Resolution for page rendering (72-300 recommended)
	ColorSpace           string // "RGB" or "Gray"
	IncludeAnnotations   bool   // Include PDF annotations in rendering
	PreserveTransparency bool   // Keep the alpha channel in output
}

// DefaultPageConfig returns the rendering defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		DPI:                  150,
		ColorSpace:           "RGB",
		IncludeAnnotations:   true,
		PreserveTransparency: false,
	}
}

// RasterImage is a PNG-encoded rendering of a single page. It lives only
// across one extraction call.
type RasterImage struct {
	PageIndex int
	PNG       []byte
	Width     int
	Height    int
}

// ImageDescription is the schema-constrained analysis of a rendered page.
// The yes/no fields carry "Yes"/"No" literals per the structured response
// schema.
type ImageDescription struct {
	TextDetected    string  `json:"text_detected"`
	TablesDetected  string  `json:"tables_detected"`
	ImagesDetected  string  `json:"images_detected"`
	LatexDetected   string  `json:"latex_equations_detected"`
	ExtractedText   string  `json:"extracted_text"`
	ConfidenceScore float64 `json:"confidence_score_text"`
}

// HasText reports whether the analysis found any text on the page.
func (d *ImageDescription) HasText() bool {
	return strings.TrimSpace(d.TextDetected) != "No"
}

// HasImages reports whether the analysis found embedded images on the page.
func (d *ImageDescription) HasImages() bool {
	return strings.TrimSpace(d.ImagesDetected) == "Yes"
}

// Validate checks the yes/no literals and the confidence range.
func (d *ImageDescription) Validate() error {
	fields := map[string]string{
		"text_detected":            d.TextDetected,
		"tables_detected":          d.TablesDetected,
		"images_detected":          d.ImagesDetected,
		"latex_equations_detected": d.LatexDetected,
	}
	for name, value := range fields {
		v := strings.TrimSpace(value)
		if v != "Yes" && v != "No" {
			return SchemaError("field "+name+" must be Yes or No", nil)
		}
	}
	if d.ConfidenceScore < 0 || d.ConfidenceScore > 1 {
		return SchemaError("confidence_score_text out of range [0,1]", nil)
	}
	return nil
}

// ExtractedImage is one embedded image pulled out of a page.
type ExtractedImage struct {
	PageIndex int
	Mode      ImageMode
	// Locator is the stable per-page, per-image identifier. In url mode it is
	// also the reference target.
	Locator string
	// Payload is the inline data URI for base64 mode, empty otherwise.
	Payload string
}

// MarkdownRef renders the markdown image reference for this image.
func (e *ExtractedImage) MarkdownRef() string {
	target := e.Locator
	if e.Mode == ImageModeBase64 {
		target = e.Payload
	}
	return "![" + e.Locator + "](" + target + ")"
}

// PageResult is the immutable outcome of converting one page.
type PageResult struct {
	PageIndex int
	Markdown  string
	Images    []ExtractedImage
}
