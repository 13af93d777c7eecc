package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/hr-gpt/internal/ai"
	"github.com/spigell/hr-gpt/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// Provider is the value of the ai_provider log field.
	Provider     = "gemini"
	DefaultModel = "gemini-2.5-flash"
	jsonMIMEType = "application/json"
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator sends ai requests to the Gemini API.
type Generator struct {
	models    contentModels
	modelName string
	logger    *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, log), nil
}

func newGenerator(models contentModels, model string, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		models:    models,
		modelName: model,
		logger:    logger.WithAI(log, Provider, model),
	}
}

// Generate converts req to genai contents and returns the text of the first non-empty candidate.
func (g *Generator) Generate(ctx context.Context, req *ai.Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if req == nil || len(req.Parts) == 0 {
		return "", errors.New("request has no parts")
	}

	contents, err := toContents(req.Parts)
	if err != nil {
		return "", err
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, contents, toConfig(req))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("gemini response received", zap.String("request", req.Name), zap.Int("bytes", len(output)))
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func toContents(parts []ai.Part) ([]*genai.Content, error) {
	out := make([]*genai.Part, 0, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case ai.TextPart:
			out = append(out, &genai.Part{Text: v.Text})
		case ai.FilePart:
			data, err := v.File.Bytes()
			if err != nil {
				return nil, fmt.Errorf("decode part %d (%s): %w", i, v.File.Name, err)
			}
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: v.File.MimeType, Data: data}})
		default:
			return nil, fmt.Errorf("unsupported part %T", p)
		}
	}

	return []*genai.Content{{Role: genai.RoleUser, Parts: out}}, nil
}

func toConfig(req *ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if instruction := strings.TrimSpace(req.SystemInstruction); instruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = jsonMIMEType
		cfg.ResponseSchema = toSchema(req.Schema)
	}
	return cfg
}

func toSchema(s *ai.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:             genai.Type(s.Type),
		Description:      s.Description,
		Items:            toSchema(s.Items),
		Required:         s.Required,
		PropertyOrdering: s.Ordering,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			return text
		}
	}
	return ""
}
