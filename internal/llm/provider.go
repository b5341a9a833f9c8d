// Package llm provides the vision model capability interface and its Gemini
// backing provider.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/visionmark/visionmark/internal/domain"
	"github.com/visionmark/visionmark/internal/observability"
)

// SupportedModels maps recognized model names to their provider.
var SupportedModels = map[string]string{
	"gemini-1.5-flash":     "gemini",
	"gemini-2.0-flash-exp": "gemini",
	"gemini-1.5-pro":       "gemini",
}

// VisionModel is the capability interface to an external vision LLM. Both
// call kinds run under the same retry policy and report exhaustion as a
// ModelError.
type VisionModel interface {
	// StructuredCall sends a PNG image plus prompt and decodes the response
	// into the fixed ImageDescription schema. A decode failure is reported as
	// a SchemaError, never a crash.
	StructuredCall(ctx context.Context, imagePNG []byte, prompt string) (*domain.ImageDescription, error)

	// FreeformCall sends a PNG image plus prompt and returns free text with
	// any enclosing fenced-code-block markers stripped.
	FreeformCall(ctx context.Context, imagePNG []byte, prompt string) (string, error)
}

// ModelConfig holds the model identity and generation tunables.
type ModelConfig struct {
	ModelName       string
	APIKey          string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
	// CallTimeout bounds each HTTP request to the provider. Zero means the
	// default of 5 minutes.
	CallTimeout time.Duration
}

// NewModel validates the model name against the allow-list and constructs
// the backing provider. An unrecognized name is a fatal construction-time
// UnsupportedModel error.
func NewModel(cfg ModelConfig, logger *observability.Logger) (VisionModel, error) {
	provider, ok := SupportedModels[cfg.ModelName]
	if !ok {
		return nil, domain.UnsupportedModelError(
			fmt.Sprintf("model %q is not supported; supported models are: %s",
				cfg.ModelName, supportedModelList()), nil)
	}

	if logger == nil {
		logger = observability.Nop()
	}

	switch provider {
	case "gemini":
		return NewGeminiClient(cfg, logger), nil
	default:
		return nil, domain.UnsupportedModelError(
			fmt.Sprintf("no client registered for provider %q", provider), nil)
	}
}

func supportedModelList() string {
	names := make([]string, 0, len(SupportedModels))
	for name, provider := range SupportedModels {
		names = append(names, fmt.Sprintf("%q from %s", name, provider))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
