package gemini

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"

	"github.com/vbonduro/clandphoto/internal/vision"
)

const defaultModel = "gemini-2.5-flash"

// analysisSchema constrains the reply to the object vision.ParseResponse reads.
var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"vehicleModel": {
			Type:        genai.TypeString,
			Description: "Vehicle make and model (e.g. Toyota Corolla). Prefix with 'Probable: ' when uncertain.",
		},
		"licensePlate": {
			Type:        genai.TypeString,
			Description: "Formatted licence plate (e.g. ABC-1234), or 'ILLEGIBLE'.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "Technical report on physical condition, damage and image quality.",
		},
		"tags": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Short tags such as 'Damage', 'Bald tyre', 'Dark image', 'Sedan', 'Inspection OK'.",
		},
	},
	Required: []string{"vehicleModel", "licensePlate", "description", "tags"},
}

type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	return newGeminiAnalyzer(ctx, apiKey, model, "")
}

func newGeminiAnalyzer(ctx context.Context, apiKey, model, baseURL string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, r io.Reader, mimeType string) (*vision.AnalysisResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(vision.AnalysisPrompt),
		}, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}

	return vision.ParseResponse(resp.Text()), nil
}

func (a *GeminiAnalyzer) Summarize(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}
	return resp.Text(), nil
}
