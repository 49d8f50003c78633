package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/safelens/veriscan/internal/config"
)

const groqSystemPromptTemplate = `You are a risk classification agent.

Classify the text into ONE of these categories only:
%s

Return JSON ONLY:

{
    "risk_category": "<one of the categories above>",
    "risk_score": number between 0 and 1,
    "risk_reason": "short explanation"
}

No extra text. JSON only.`

type groqPayload struct {
	RiskCategory *string  `json:"risk_category"`
	RiskScore    *float64 `json:"risk_score"`
	RiskReason   *string  `json:"risk_reason"`
}

// GroqClassifier is the category-constrained text agent, reached over
// Groq's OpenAI-compatible chat completions API. Text-only; the engine
// never invokes it without text.
type GroqClassifier struct {
	client *openai.Client
	model  string
}

func NewGroqClassifier(cfg config.GroqConfig) (*GroqClassifier, error) {
	if cfg.APIKey == "" {
		return nil, &CredentialError{Agent: NameGroq, EnvVar: "GROQ_API_KEY"}
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &GroqClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (c *GroqClassifier) Name() string { return NameGroq }

func (c *GroqClassifier) Classify(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, &UpstreamError{Agent: NameGroq, Msg: "empty text input"}
	}

	systemPrompt := fmt.Sprintf(groqSystemPromptTemplate, "- "+strings.Join(Categories, "\n- "))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameGroq, Msg: "chat completion failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return Result{}, &UpstreamError{Agent: NameGroq, Msg: "no response choices"}
	}

	content := resp.Choices[0].Message.Content

	var payload groqPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		extracted := ExtractJSONObject(StripCodeFence(content))
		if extracted == "" {
			return Result{}, &MalformedPayloadError{Agent: NameGroq, Raw: content, Err: err}
		}
		if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
			return Result{}, &MalformedPayloadError{Agent: NameGroq, Raw: content, Err: err}
		}
	}

	return groqResult(payload), nil
}

func groqResult(p groqPayload) Result {
	category := DefaultCategory
	if p.RiskCategory != nil && knownCategory(*p.RiskCategory) {
		category = *p.RiskCategory
	}

	score := 0.0
	if p.RiskScore != nil {
		score = Clamp01(*p.RiskScore)
	}

	reason := ""
	if p.RiskReason != nil {
		reason = *p.RiskReason
	}

	return Result{
		Agent:    NameGroq,
		Category: category,
		Score:    score,
		Reason:   reason,
	}
}

func knownCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
