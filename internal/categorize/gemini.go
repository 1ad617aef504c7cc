package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"finboard/internal/apperr"
)

const geminiModel = "gemini-2.0-flash"

// Gemini is the live text-suggestion adapter. Any failure degrades to the
// keyword fallback; a categorization error never aborts the caller's run.
type Gemini struct {
	client   *genai.Client
	fallback Keyword
	log      *logrus.Logger
}

func NewGemini(ctx context.Context, apiKey string, log *logrus.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.E(apperr.UpstreamUnavailable, "categorize.NewGemini", err)
	}
	return &Gemini{client: client, log: log}, nil
}

func (g *Gemini) SuggestCategory(ctx context.Context, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Classify this personal-finance transaction description into exactly one category from this list: "+
			"Income, Investments, Transport, Food, Housing, Utilities, Entertainment, Health, Education, Other. "+
			"Reply with the category name only.\n\nDescription: %s", description)

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), nil)
	if err != nil {
		g.log.Warnf("suggestion provider failed, using keyword fallback: %v", err)
		return g.fallback.SuggestCategory(ctx, description)
	}
	category := extractCategory(result)
	if category == "" {
		g.log.Warn("suggestion provider returned no usable text, using keyword fallback")
		return g.fallback.SuggestCategory(ctx, description)
	}
	return category, nil
}

func extractCategory(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	// first line only; the model occasionally adds commentary
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
