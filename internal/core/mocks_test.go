package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/core/aggregate"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

type mockClassifier struct {
	name   string
	result agent.Result
	err    error
	calls  atomic.Int32
}

func (m *mockClassifier) Name() string { return m.name }

func (m *mockClassifier) Classify(ctx context.Context, in agent.Input) (agent.Result, error) {
	m.calls.Add(1)
	if m.err != nil {
		return agent.Result{}, m.err
	}
	return m.result, nil
}

// mockSaver records the rows handed to it and assigns IDs the way the real
// store does, or fails wholesale when Err is set.
type mockSaver struct {
	Err          error
	Saved        *model.Verification
	SavedDetails []*model.RiskDetail
	Calls        int
}

var errSaveFailed = errors.New("insert failed on detail row")

func (m *mockSaver) SaveVerification(ctx context.Context, v *model.Verification, details []*model.RiskDetail) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	v.VerificationID = 101
	for i, d := range details {
		d.VerificationID = v.VerificationID
		d.RiskDetailID = int64(200 + i)
	}
	if len(details) > 0 {
		id := details[0].RiskDetailID
		v.RiskDetailID = &id
	}
	m.Saved = v
	m.SavedDetails = details
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	require.NoError(t, err)
	return log
}

func newTestVerifier(t *testing.T, multimodal, category, zeroShot *mockClassifier, saver *mockSaver) *Verifier {
	t.Helper()
	engine := aggregate.NewEngine(multimodal, category, zeroShot, 5*time.Second, testLogger(t))
	return NewVerifier(engine, saver, testLogger(t))
}

func defaultMocks() (*mockClassifier, *mockClassifier, *mockClassifier) {
	multimodal := &mockClassifier{
		name: agent.NameGemini,
		result: agent.Result{
			Agent:      agent.NameGemini,
			Category:   "deepfake",
			Score:      0.2,
			Categories: []string{"deepfake"},
			Reasons:    []string{"synthetic face artifacts"},
			Level:      model.RiskLow,
		},
	}
	category := &mockClassifier{
		name: agent.NameGroq,
		result: agent.Result{
			Agent:    agent.NameGroq,
			Category: "financial_fraud",
			Score:    0.5,
			Reason:   "asks for account credentials",
		},
	}
	zeroShot := &mockClassifier{
		name: agent.NameZeroShot,
		result: agent.Result{
			Agent:    agent.NameZeroShot,
			Category: "misinformation",
			Score:    0.9,
		},
	}
	return multimodal, category, zeroShot
}
