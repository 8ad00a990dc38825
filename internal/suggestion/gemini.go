package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash-001"

const upsellPrompt = `You are a helpful shopping assistant in a grocery store.
Based on the items currently in the cart, suggest other relevant products to upsell or cross-sell to the customer.
Be concise and provide a maximum of 3 suggestions.
Answer with a JSON array of product names only.
Current cart items: %s
Suggestions:`

type GeminiSuggester struct {
	client *genai.Client
	model  string
}

func NewGeminiSuggester(ctx context.Context, apiKey string, model string) (*GeminiSuggester, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiSuggester{client: client, model: model}, nil
}

func (g *GeminiSuggester) Close() error {
	return g.client.Close()
}

func (g *GeminiSuggester) Suggest(ctx context.Context, itemNames []string) ([]string, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(upsellPrompt, strings.Join(itemNames, ", "))))
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return parseSuggestions(text.String()), nil
}

var listMarker = regexp.MustCompile(`^(?:[-*•]\s*|\d+[.)]\s+)`)

// parseSuggestions accepts either a JSON array of names or one name per
// line, with list markers stripped.
func parseSuggestions(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list
	}

	out := make([]string, 0, MaxSuggestions)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
