package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`, StripCodeFence("  {\"a\": 1}  "))
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject(`Sure! Here it is: {"a": 1} hope that helps`))
	assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSONObject(`{"a": {"b": 2}}`))
	assert.Equal(t, "", ExtractJSONObject("no json here"))
	assert.Equal(t, "", ExtractJSONObject("} backwards {"))
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		RiskScore float64 `json:"risk_score"`
		Level     string  `json:"risk_level"`
	}

	got, err := ParseJSON[payload]("```json\n{\"risk_score\": 42, \"risk_level\": \"MEDIUM\"}\n```")
	assert.NoError(t, err)
	assert.Equal(t, 42.0, got.RiskScore)
	assert.Equal(t, "MEDIUM", got.Level)

	_, err = ParseJSON[payload]("the model refused to answer")
	assert.Error(t, err)

	_, err = ParseJSON[payload]("{not valid json}")
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.4))
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.Equal(t, 0.0, Clamp01(0))
	assert.Equal(t, 1.0, Clamp01(1))
}
