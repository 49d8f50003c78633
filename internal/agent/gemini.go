package agent

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/safelens/veriscan/internal/config"
	"github.com/safelens/veriscan/internal/model"
)

// placeholderText stands in for the text part on image-only submissions;
// the provider requires a text part alongside inline image data.
const placeholderText = "(no text provided)"

const geminiSystemPrompt = `You are a safety classifier that rates the risk of the input text (and optionally an image).
Respond with this JSON schema only (no code block, no other text).

Rules:
- risk_score: integer 0-100
- risk_level: LOW (0-33), MEDIUM (34-66), HIGH (67-100)
- categories: array of applicable risk category strings (empty array if none)
- reasons: 2-5 short justifications
- needs_action: true if HIGH, otherwise false

Example output JSON:
{"risk_score": 12, "risk_level": "LOW", "categories": [], "reasons": ["...", "..."], "needs_action": false}`

type geminiPayload struct {
	RiskScore   float64  `json:"risk_score"`
	RiskLevel   string   `json:"risk_level"`
	Categories  []string `json:"categories"`
	Reasons     []string `json:"reasons"`
	NeedsAction bool     `json:"needs_action"`
}

// GeminiClassifier is the multimodal agent. It is the only classifier that
// accepts image input, and it reports risk on a 0-100 integer scale which is
// normalized to [0,1] here.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

func NewGeminiClassifier(ctx context.Context, cfg config.GeminiConfig) (*GeminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, &CredentialError{Agent: NameGemini, EnvVar: "GEMINI_API_KEY"}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, &UpstreamError{Agent: NameGemini, Msg: "client init failed", Err: err}
	}
	return &GeminiClassifier{client: client, model: cfg.Model}, nil
}

func (c *GeminiClassifier) Name() string { return NameGemini }

func (c *GeminiClassifier) Close() error { return c.client.Close() }

func (c *GeminiClassifier) Classify(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		text = placeholderText
	}

	parts := []genai.Part{
		genai.Text(geminiSystemPrompt),
		genai.Text("Input text:\n" + text),
	}
	if len(in.Image) > 0 {
		parts = append(parts, genai.ImageData(imageFormat(in.ImageMIME), in.Image))
	}

	gm := c.client.GenerativeModel(c.model)
	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return Result{}, &UpstreamError{Agent: NameGemini, Msg: "generate content failed", Err: err}
	}

	raw := responseText(resp)
	if raw == "" {
		return Result{}, &UpstreamError{Agent: NameGemini, Msg: "no response candidates or content"}
	}

	payload, err := ParseJSON[geminiPayload](raw)
	if err != nil {
		return Result{}, &MalformedPayloadError{Agent: NameGemini, Raw: raw, Err: err}
	}

	return geminiResult(payload), nil
}

func geminiResult(p geminiPayload) Result {
	score := Clamp01(p.RiskScore / 100.0)

	category := DefaultCategory
	if len(p.Categories) > 0 {
		category = p.Categories[0]
	}

	level := model.RiskLevel(p.RiskLevel)
	switch level {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		level = model.LevelForScore(score)
	}

	reason := ""
	if len(p.Reasons) > 0 {
		reason = p.Reasons[0]
	}

	return Result{
		Agent:       NameGemini,
		Category:    category,
		Score:       score,
		Reason:      reason,
		Level:       level,
		Categories:  p.Categories,
		Reasons:     p.Reasons,
		NeedsAction: p.NeedsAction,
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// imageFormat maps a MIME type to the bare format name the SDK expects.
func imageFormat(mime string) string {
	lower := strings.ToLower(mime)
	if !strings.HasPrefix(lower, "image/") {
		return "jpeg"
	}
	format := strings.TrimPrefix(lower, "image/")
	if format == "" {
		return "jpeg"
	}
	return format
}
