package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"streekhook/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"

	questionCount = 5
	optionCount   = 4
)

// responseSchema constrains the model output to the question list shape.
const responseSchema = `{
  "type": "ARRAY",
  "items": {
    "type": "OBJECT",
    "properties": {
      "text": {"type": "STRING"},
      "options": {"type": "ARRAY", "items": {"type": "STRING"}, "minItems": 4, "maxItems": 4},
      "correctIndex": {"type": "INTEGER", "description": "Index (0-3) of the correct answer"}
    },
    "required": ["text", "options", "correctIndex"]
  }
}`

// Generator asks the Gemini generateContent endpoint for a topic's question
// list. Any malformed response is a generation failure; callers must not
// create a room from it.
type Generator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGenerator(apiKey, model string) *Generator {
	return NewGeneratorWithEndpoint(apiKey, model, defaultBaseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewGeneratorWithEndpoint is for tests that stub the API.
func NewGeneratorWithEndpoint(apiKey, model, baseURL string, client *http.Client) *Generator {
	if model == "" {
		model = defaultModel
	}
	return &Generator{apiKey: apiKey, model: model, baseURL: baseURL, client: client}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type generatedQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

func (g *Generator) Generate(ctx context.Context, topic string) ([]domain.Question, error) {
	prompt := fmt.Sprintf(`Generate %d multiple-choice questions about %q. `+
		`Each question should be fun and informative. `+
		`Return the data in the specified JSON schema.`, questionCount, topic)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   json.RawMessage(responseSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrGenerationFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrGenerationFailed, err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrGenerationFailed, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrGenerationFailed)
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(parsed.Candidates[0].Content.Parts[0].Text), &generated); err != nil {
		return nil, fmt.Errorf("%w: decode question list: %v", domain.ErrGenerationFailed, err)
	}

	return mapQuestions(generated)
}

// mapQuestions validates the model output and assigns stable question ids.
func mapQuestions(generated []generatedQuestion) ([]domain.Question, error) {
	if len(generated) != questionCount {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", domain.ErrGenerationFailed, questionCount, len(generated))
	}
	questions := make([]domain.Question, len(generated))
	for i, q := range generated {
		if len(q.Options) != optionCount {
			return nil, fmt.Errorf("%w: question %d has %d options", domain.ErrGenerationFailed, i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= optionCount {
			return nil, fmt.Errorf("%w: question %d correct index %d out of range", domain.ErrGenerationFailed, i, q.CorrectIndex)
		}
		questions[i] = domain.Question{
			ID:           fmt.Sprintf("q-%d-%s", i, uuid.NewString()),
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		}
	}
	return questions, nil
}
