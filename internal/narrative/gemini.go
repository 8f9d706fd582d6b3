package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// ContentGenerator is the subset of the genai client used here.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator writes the narrative with a Gemini model.
type GeminiGenerator struct {
	generator ContentGenerator
	model     string
}

// NewGeminiGenerator creates a genai client for narrative generation.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	return NewGeminiGeneratorWithGenerator(client.Models, model), nil
}

// NewGeminiGeneratorWithGenerator wraps an existing generator. An empty model
// selects DefaultModelName.
func NewGeminiGeneratorWithGenerator(gen ContentGenerator, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiGenerator{generator: gen, model: model}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr[float32](0.4),
	}

	resp, err := g.generator.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("GeminiGenerator.Generate: generate content: %w", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("GeminiGenerator.Generate: empty response from model")
	}

	res, err := ParseResponse(rawText)
	if err != nil {
		return nil, fmt.Errorf("GeminiGenerator.Generate: %w", err)
	}
	return res, nil
}

// ParseResponse decodes and validates raw model output.
func ParseResponse(raw string) (*Result, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	var res Result
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return nil, fmt.Errorf("ParseResponse: %w: %v", ErrInvalidResponse, err)
	}
	res.Fallback = false
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("ParseResponse: %w", err)
	}
	return &res, nil
}
