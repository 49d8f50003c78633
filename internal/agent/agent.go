package agent

import (
	"context"
	"fmt"

	"github.com/safelens/veriscan/internal/model"
)

// Agent identifiers, also used as keys in API responses and as the
// namespace prefix on persisted risk categories.
const (
	NameGemini   = "gemini"
	NameGroq     = "groq"
	NameZeroShot = "hf"
)

// DefaultCategory is the no-risk label substituted whenever a provider
// omits a category or reports one outside the known set.
const DefaultCategory = "normal"

// Categories is the closed label set shared by the category-constrained
// and zero-shot classifiers.
var Categories = []string{
	"misinformation",
	"deepfake",
	"sexual_content",
	"financial_fraud",
	"hate_violence",
	DefaultCategory,
}

// Input is the content handed to a classifier. Image may be nil; text-only
// classifiers are never invoked with empty text (the engine enforces this).
type Input struct {
	Text      string
	Image     []byte
	ImageMIME string
}

// Result is the common shape every adapter normalizes its provider
// response into. Score is always clamped to [0,1].
type Result struct {
	Agent       string          `json:"agent"`
	Category    string          `json:"risk_category"`
	Score       float64         `json:"risk_score"`
	Reason      string          `json:"risk_reason,omitempty"`
	Level       model.RiskLevel `json:"risk_level,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Reasons     []string        `json:"reasons,omitempty"`
	NeedsAction bool            `json:"needs_action,omitempty"`
}

type Classifier interface {
	Name() string
	Classify(ctx context.Context, in Input) (Result, error)
}

// Clamp01 forces an externally-reported score into [0,1]. Providers are
// not trusted to respect the documented range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UpstreamError is a transport-level failure talking to a provider:
// network error, non-2xx status, or timeout.
type UpstreamError struct {
	Agent string
	Msg   string
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream error: %s: %v", e.Agent, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Agent, e.Msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedPayloadError means the provider answered but its payload could
// not be parsed into the expected structure. Raw carries the offending
// response for diagnosis.
type MalformedPayloadError struct {
	Agent string
	Raw   string
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s returned malformed payload: %v (raw: %s)", e.Agent, e.Err, truncate(e.Raw, 500))
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// CredentialError means a classifier is unusable because its credential
// was never configured.
type CredentialError struct {
	Agent  string
	EnvVar string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s credential missing: %s is not set", e.Agent, e.EnvVar)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
