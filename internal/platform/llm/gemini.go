package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiConfig struct {
	// APIKey selects the Gemini API backend; otherwise Project and Location
	// select Vertex AI with application default credentials.
	APIKey   string
	Project  string
	Location string
	BaseURL  string
	Model    string
}

type geminiClient struct {
	log    *logger.Logger
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg GeminiConfig, log *logger.Logger) (Generator, error) {
	cc := &genai.ClientConfig{}
	switch {
	case strings.TrimSpace(cfg.APIKey) != "":
		cc.APIKey = strings.TrimSpace(cfg.APIKey)
		cc.Backend = genai.BackendGeminiAPI
	case strings.TrimSpace(cfg.Project) != "" && strings.TrimSpace(cfg.Location) != "":
		cc.Project = strings.TrimSpace(cfg.Project)
		cc.Location = strings.TrimSpace(cfg.Location)
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini needs GEMINI_API_KEY or GEMINI_PROJECT and GEMINI_LOCATION")
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &geminiClient{
		log:    log.With("service", "GeminiClient"),
		client: client,
		model:  model,
	}, nil
}

func (g *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.model
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}

	res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
