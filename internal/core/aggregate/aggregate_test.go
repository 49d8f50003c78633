package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

type mockClassifier struct {
	name   string
	result agent.Result
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockClassifier) Name() string { return m.name }

func (m *mockClassifier) Classify(ctx context.Context, in agent.Input) (agent.Result, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return agent.Result{}, ctx.Err()
		}
	}
	if m.err != nil {
		return agent.Result{}, m.err
	}
	return m.result, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	require.NoError(t, err)
	return log
}

func newTestEngine(t *testing.T, multimodal, category, zeroShot *mockClassifier) *Engine {
	t.Helper()
	return NewEngine(multimodal, category, zeroShot, 5*time.Second, testLogger(t))
}

func multimodalMock(score float64, categories ...string) *mockClassifier {
	return &mockClassifier{
		name: agent.NameGemini,
		result: agent.Result{
			Agent:      agent.NameGemini,
			Score:      score,
			Categories: categories,
		},
	}
}

func categoryMock(score float64, category string) *mockClassifier {
	return &mockClassifier{
		name:   agent.NameGroq,
		result: agent.Result{Agent: agent.NameGroq, Score: score, Category: category},
	}
}

func zeroShotMock(score float64, category string) *mockClassifier {
	return &mockClassifier{
		name:   agent.NameZeroShot,
		result: agent.Result{Agent: agent.NameZeroShot, Score: score, Category: category},
	}
}

func TestLevelForScoreBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{0.33999, model.RiskLow},
		{0.34, model.RiskMedium},
		{0.5, model.RiskMedium},
		{0.66999, model.RiskMedium},
		{0.67, model.RiskHigh},
		{1, model.RiskHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, model.LevelForScore(tc.score), "score=%v", tc.score)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.32, Round2(0.32))
	assert.Equal(t, 0.33, Round2(0.325))
	assert.Equal(t, 0.67, Round2(0.666666))
	assert.Equal(t, 1.0, Round2(0.999))
}

func TestRunTextOnlyCombinesWeighted(t *testing.T) {
	multimodal := multimodalMock(0.2, "misinformation")
	category := categoryMock(0.5, "financial_fraud")
	zeroShot := zeroShotMock(0.9, "deepfake")
	engine := newTestEngine(t, multimodal, category, zeroShot)

	outcome, err := engine.Run(context.Background(), agent.Input{Text: "dubious claim"})
	require.NoError(t, err)

	// 0.6*0.2 + 0.4*0.5 exactly
	assert.InDelta(t, 0.32, outcome.Score, 1e-12)
	assert.Equal(t, model.RiskLow, outcome.Level)
	assert.Equal(t, "financial_fraud", outcome.Category)

	assert.Equal(t, int32(1), multimodal.calls.Load())
	assert.Equal(t, int32(1), category.calls.Load())
	assert.Equal(t, int32(1), zeroShot.calls.Load())

	require.Len(t, outcome.Results, 3)
	assert.Equal(t, agent.NameGemini, outcome.Results[0].Agent)
	assert.Equal(t, agent.NameGroq, outcome.Results[1].Agent)
	assert.Equal(t, agent.NameZeroShot, outcome.Results[2].Agent)

	assert.Equal(t, 0.6, outcome.Weights[agent.NameGemini])
	assert.Equal(t, 0.4, outcome.Weights[agent.NameGroq])
	assert.Equal(t, 0.0, outcome.Weights[agent.NameZeroShot])

	// non-zero weights sum to 1.0
	sum := 0.0
	for _, w := range outcome.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestRunImageOnlySkipsTextAgents(t *testing.T) {
	multimodal := multimodalMock(0.8, "deepfake", "sexual_content")
	category := categoryMock(0.5, "normal")
	zeroShot := zeroShotMock(0.5, "normal")
	engine := newTestEngine(t, multimodal, category, zeroShot)

	outcome, err := engine.Run(context.Background(), agent.Input{Image: []byte{0xFF, 0xD8}, ImageMIME: "image/jpeg"})
	require.NoError(t, err)

	assert.Equal(t, 0.8, outcome.Score)
	assert.Equal(t, model.RiskHigh, outcome.Level)
	assert.Equal(t, "deepfake", outcome.Category)
	assert.Equal(t, map[string]float64{agent.NameGemini: 1.0}, outcome.Weights)

	assert.Equal(t, int32(1), multimodal.calls.Load())
	assert.Equal(t, int32(0), category.calls.Load())
	assert.Equal(t, int32(0), zeroShot.calls.Load())
	assert.Len(t, outcome.Results, 1)
}

func TestRunImageOnlyEmptyCategoryList(t *testing.T) {
	engine := newTestEngine(t, multimodalMock(0.1), categoryMock(0, ""), zeroShotMock(0, ""))

	outcome, err := engine.Run(context.Background(), agent.Input{Image: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultCategory, outcome.Category)
}

func TestRunWhitespaceTextTreatedAsEmpty(t *testing.T) {
	category := categoryMock(0.5, "normal")
	engine := newTestEngine(t, multimodalMock(0.3), category, zeroShotMock(0, ""))

	outcome, err := engine.Run(context.Background(), agent.Input{Text: "   \n\t", Image: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, int32(0), category.calls.Load())
	assert.Equal(t, 0.3, outcome.Score)
}

func TestRunClampsCombinedScore(t *testing.T) {
	// scores past the range must not push the final above 1
	engine := newTestEngine(t, multimodalMock(1.8), categoryMock(2.5, "deepfake"), zeroShotMock(0, ""))

	outcome, err := engine.Run(context.Background(), agent.Input{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, outcome.Score)
	assert.Equal(t, model.RiskHigh, outcome.Level)
}

func TestRunFailurePropagates(t *testing.T) {
	sentinel := errors.New("provider down")
	category := &mockClassifier{name: agent.NameGroq, err: sentinel}
	engine := newTestEngine(t, multimodalMock(0.2), category, zeroShotMock(0.1, "normal"))

	_, err := engine.Run(context.Background(), agent.Input{Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestRunTimeoutFailsCall(t *testing.T) {
	slow := &mockClassifier{
		name:   agent.NameGemini,
		result: agent.Result{Agent: agent.NameGemini, Score: 0.2},
		delay:  500 * time.Millisecond,
	}
	engine := NewEngine(slow, categoryMock(0, ""), zeroShotMock(0, ""), 20*time.Millisecond, testLogger(t))

	_, err := engine.Run(context.Background(), agent.Input{Image: []byte{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunWaitsForAllBeforeMerging(t *testing.T) {
	slow := &mockClassifier{
		name:   agent.NameZeroShot,
		result: agent.Result{Agent: agent.NameZeroShot, Score: 0.1, Category: "normal"},
		delay:  50 * time.Millisecond,
	}
	engine := newTestEngine(t, multimodalMock(0.2), categoryMock(0.5, "normal"), slow)

	outcome, err := engine.Run(context.Background(), agent.Input{Text: "x"})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, agent.NameZeroShot, outcome.Results[2].Agent)
}
