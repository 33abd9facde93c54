package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/RajKumaar123/langchain-rag-flask/internal/core"
)

// GeminiLLM generates with a primary model and retries once on a quota
// error with the fallback model.
type GeminiLLM struct {
	client        *genai.Client
	modelName     string
	fallbackModel string
	temperature   float32
	maxTokens     int32
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName, fallbackModel string, temperature float64, maxTokens int) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	return &GeminiLLM{
		client:        cl,
		modelName:     modelName,
		fallbackModel: fallbackModel,
		temperature:   float32(temperature),
		maxTokens:     int32(maxTokens),
	}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := g.generateWith(ctx, g.modelName, systemPrompt, userPrompt)
	if err != nil && g.fallbackModel != "" && g.fallbackModel != g.modelName && isQuotaErr(err) {
		log.Printf("llm: %s quota exhausted, retrying with %s", g.modelName, g.fallbackModel)
		return g.generateWith(ctx, g.fallbackModel, systemPrompt, userPrompt)
	}
	return out, err
}

func (g *GeminiLLM) generateWith(ctx context.Context, modelName, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(modelName)
	m.SetTemperature(g.temperature)
	if g.maxTokens > 0 {
		m.SetMaxOutputTokens(g.maxTokens)
	}
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", modelName, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

func isQuotaErr(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "429")
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
