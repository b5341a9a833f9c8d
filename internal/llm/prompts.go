package llm

import (
	"strings"
	"text/template"

	"github.com/visionmark/visionmark/internal/domain"
)

// analysisPrompt is the fixed prompt for the structured page analysis call.
const analysisPrompt = `Analyze the given document page image and return a structured JSON response with the following fields:

1. "text_detected": "Yes" if the page contains any readable text, "No" otherwise.
2. "tables_detected": "Yes" if the page contains any tables, "No" otherwise.
3. "images_detected": "Yes" if the page embeds any pictures, figures, charts or diagrams, "No" otherwise.
4. "latex_equations_detected": "Yes" if the page contains mathematical equations or formulas, "No" otherwise.
5. "extracted_text": every piece of text found on the page, preserving the visual reading order.
6. "confidence_score_text": your confidence in the accuracy of the extracted text, as a number between 0 and 1.

Return ONLY the JSON object. Do not wrap it in a code block and do not add commentary.`

// markdownPromptTemplate renders the markdown-generation prompt from the
// structured analysis fields plus the optional custom prompt suffix.
var markdownPromptTemplate = template.Must(template.New("markdown").Parse(
	`Your task is to transcribe the content of the given document page image into clean, well-formatted markdown.
{{- if .ExtractedText}}

The following text was previously extracted from this page (confidence score: {{printf "%.2f" .ConfidenceScore}}). Use it as a reference, but trust the image where they disagree:

{{.ExtractedText}}
{{- end}}

Formatting rules:
- Use markdown heading levels that match the visual hierarchy of the page.
{{- if eq .TablesDetected "Yes"}}
- Reproduce every table using markdown table syntax, preserving all rows and columns.
{{- end}}
{{- if eq .LatexDetected "Yes"}}
- Transcribe mathematical equations using LaTeX notation inside $ or $$ delimiters.
{{- end}}
- Preserve the reading order of the original page.
- Do not invent content that is not visible on the page and do not describe the page.
- Return only the markdown content. Do not wrap the output in a code block.
{{- if .CustomPrompt}}

{{.CustomPrompt}}
{{- end}}
`))

// promptData carries the fields the markdown template renders.
type promptData struct {
	ExtractedText   string
	TablesDetected  string
	LatexDetected   string
	ConfidenceScore float64
	CustomPrompt    string
}

// AnalysisPrompt returns the fixed structured-analysis prompt.
func AnalysisPrompt() string {
	return analysisPrompt
}

// BuildMarkdownPrompt renders the markdown-generation prompt from a page
// analysis and the configured custom prompt suffix.
func BuildMarkdownPrompt(desc *domain.ImageDescription, customPrompt string) (string, error) {
	data := promptData{
		ExtractedText:   desc.ExtractedText,
		TablesDetected:  desc.TablesDetected,
		LatexDetected:   desc.LatexDetected,
		ConfidenceScore: desc.ConfidenceScore,
		CustomPrompt:    strings.TrimSpace(customPrompt),
	}

	var b strings.Builder
	if err := markdownPromptTemplate.Execute(&b, data); err != nil {
		return "", domain.ConversionError("failed to render markdown prompt", err)
	}
	return b.String(), nil
}

// FallbackDescription returns the fixed analysis defaults used in
// simple-mode extraction: tables assumed present, no latex, no reference
// text.
func FallbackDescription() *domain.ImageDescription {
	return &domain.ImageDescription{
		TextDetected:    "Yes",
		TablesDetected:  "Yes",
		ImagesDetected:  "No",
		LatexDetected:   "No",
		ExtractedText:   "",
		ConfidenceScore: 0.0,
	}
}
