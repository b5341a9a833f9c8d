package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultCallTimeout = 5 * time.Minute

	// structuredTopP is the fixed nucleus-sampling value for structured
	// analysis calls; structured calls always run at temperature 0.
	structuredTopP = 0.4
)

// codeFencePattern strips an enclosing fenced code block from a model
// response, keeping the inner content.
var codeFencePattern = regexp.MustCompile("(?s)```(?:markdown)?\n(.*?)\n```")

// GeminiClient handles communication with the Gemini generateContent API.
type GeminiClient struct {
	cfg        ModelConfig
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	logger     *observability.Logger
}

// Message content model for the generateContent API.

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      *float64      `json:"temperature,omitempty"`
	TopP             *float64      `json:"topP,omitempty"`
	MaxOutputTokens  int           `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
}

// geminiSchema is the subset of the OpenAPI schema dialect the API accepts
// for constrained decoding.
type geminiSchema struct {
	Type       string                   `json:"type"`
	Enum       []string                 `json:"enum,omitempty"`
	Properties map[string]*geminiSchema `json:"properties,omitempty"`
	Required   []string                 `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// imageDescriptionSchema constrains structured responses to the
// ImageDescription shape.
var imageDescriptionSchema = &geminiSchema{
	Type: "OBJECT",
	Properties: map[string]*geminiSchema{
		"text_detected":            {Type: "STRING", Enum: []string{"Yes", "No"}},
		"tables_detected":          {Type: "STRING", Enum: []string{"Yes", "No"}},
		"images_detected":          {Type: "STRING", Enum: []string{"Yes", "No"}},
		"latex_equations_detected": {Type: "STRING", Enum: []string{"Yes", "No"}},
		"extracted_text":           {Type: "STRING"},
		"confidence_score_text":    {Type: "NUMBER"},
	},
	Required: []string{
		"text_detected", "tables_detected", "images_detected",
		"latex_equations_detected", "extracted_text", "confidence_score_text",
	},
}

// NewGeminiClient creates a client for the Gemini API. Use NewModel to get
// allow-list validation.
func NewGeminiClient(cfg ModelConfig, logger *observability.Logger) *GeminiClient {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if logger == nil {
		logger = observability.Nop()
	}

	return &GeminiClient{
		cfg:        cfg,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
		logger:     logger.WithComponent("llm"),
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = baseURL
	return c
}

// WithRetryConfig overrides the retry policy. Used by tests to avoid real
// backoff sleeps.
func (c *GeminiClient) WithRetryConfig(retry *RetryConfig) *GeminiClient {
	c.retry = retry
	return c
}

// StructuredCall sends the image and prompt with the response constrained to
// the ImageDescription schema. Temperature is forced to 0 and top_p to the
// fixed structured value.
func (c *GeminiClient) StructuredCall(ctx context.Context, imagePNG []byte, prompt string) (*domain.ImageDescription, error) {
	text, err := c.generate(ctx, imagePNG, prompt, true)
	if err != nil {
		return nil, err
	}

	var desc domain.ImageDescription
	if err := json.Unmarshal([]byte(text), &desc); err != nil {
		return nil, domain.SchemaError("failed to decode structured analysis response", err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// FreeformCall sends the image and prompt and returns the response text with
// any enclosing fenced code block stripped.
func (c *GeminiClient) FreeformCall(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	return c.generate(ctx, imagePNG, prompt, false)
}

// generate performs one model call under the retry policy and returns the
// candidate text.
func (c *GeminiClient) generate(ctx context.Context, imagePNG []byte, prompt string, structured bool) (string, error) {
	req := c.buildRequest(imagePNG, prompt, structured)

	body, err := json.Marshal(req)
	if err != nil {
		return "", domain.ModelError("failed to marshal model request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.cfg.ModelName)

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
		return c.httpClient.Do(httpReq)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", domain.ModelError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	return parseGenerateResponse(resp.Body)
}

// buildRequest constructs the generateContent request for the image and
// prompt. Structured calls force temperature 0, the fixed top_p, and the
// ImageDescription response schema.
func (c *GeminiClient) buildRequest(imagePNG []byte, prompt string, structured bool) *generateRequest {
	encoded := base64.StdEncoding.EncodeToString(imagePNG)

	gc := generationConfig{
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	}
	if structured {
		temp, topP := 0.0, structuredTopP
		gc.Temperature = &temp
		gc.TopP = &topP
		gc.ResponseMimeType = "application/json"
		gc.ResponseSchema = imageDescriptionSchema
	} else {
		temp, topP := c.cfg.Temperature, c.cfg.TopP
		gc.Temperature = &temp
		gc.TopP = &topP
	}

	return &generateRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{InlineData: &inlineData{MimeType: "image/png", Data: encoded}},
					{Text: prompt},
				},
			},
		},
		GenerationConfig: gc,
	}
}

// parseGenerateResponse extracts the first candidate's text and strips any
// enclosing fenced code block.
func parseGenerateResponse(body io.Reader) (string, error) {
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return "", domain.ModelError("failed to read response body", err)
	}

	var apiResp generateResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", domain.ModelError("failed to parse API response", err)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", domain.ModelError("no candidates in API response", nil)
	}

	var text string
	for _, part := range apiResp.Candidates[0].Content.Parts {
		text += part.Text
	}

	return stripCodeFences(text), nil
}

// stripCodeFences removes enclosing ``` / ```markdown fences, keeping the
// inner content.
func stripCodeFences(text string) string {
	return codeFencePattern.ReplaceAllString(text, "$1")
}
