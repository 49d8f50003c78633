package aggregate

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

// Weights of the combination policy. The zero-shot agent is recorded but
// contributes nothing to the final score under the current policy.
const (
	weightMultimodal = 0.6
	weightCategory   = 0.4
	weightZeroShot   = 0.0
)

// Outcome is the merged result of one fan-out round. Score keeps full
// precision; rounding happens at the point of storage.
type Outcome struct {
	Score    float64
	Level    model.RiskLevel
	Category string
	Results  []agent.Result
	Weights  map[string]float64
}

// Engine fans content out to the applicable classifiers, waits for all of
// them, and merges their results under a fixed weighting policy.
type Engine struct {
	multimodal agent.Classifier
	category   agent.Classifier
	zeroShot   agent.Classifier
	timeout    time.Duration
	log        *logger.Logger
}

func NewEngine(multimodal, category, zeroShot agent.Classifier, timeout time.Duration, baseLog *logger.Logger) *Engine {
	return &Engine{
		multimodal: multimodal,
		category:   category,
		zeroShot:   zeroShot,
		timeout:    timeout,
		log:        baseLog.With("component", "aggregate"),
	}
}

// Run dispatches the selected classifiers concurrently and merges once all
// have settled. The multimodal agent always runs (and is the only one given
// the image); text-only agents run only when non-empty text is present. Any
// single failure aborts the whole round.
func (e *Engine) Run(ctx context.Context, in agent.Input) (*Outcome, error) {
	hasText := strings.TrimSpace(in.Text) != ""

	classifiers := []agent.Classifier{e.multimodal}
	if hasText {
		classifiers = append(classifiers, e.category, e.zeroShot)
	}

	results := make([]agent.Result, len(classifiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range classifiers {
		g.Go(func() error {
			callCtx := gctx
			if e.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, e.timeout)
				defer cancel()
			}

			res, err := c.Classify(callCtx, in)
			if err != nil {
				e.log.Warn("classifier failed", "agent", c.Name(), "error", err)
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return e.merge(results, hasText), nil
}

func (e *Engine) merge(results []agent.Result, hasText bool) *Outcome {
	multimodal := results[0]
	score := agent.Clamp01(multimodal.Score)

	outcome := &Outcome{Results: results}

	if hasText {
		categoryRes := results[1]
		outcome.Score = agent.Clamp01(weightMultimodal*score + weightCategory*agent.Clamp01(categoryRes.Score))
		outcome.Category = categoryRes.Category
		if outcome.Category == "" {
			outcome.Category = agent.DefaultCategory
		}
		outcome.Weights = map[string]float64{
			multimodal.Agent:  weightMultimodal,
			categoryRes.Agent: weightCategory,
			results[2].Agent:  weightZeroShot,
		}
	} else {
		outcome.Score = score
		outcome.Category = agent.DefaultCategory
		if len(multimodal.Categories) > 0 {
			outcome.Category = multimodal.Categories[0]
		}
		outcome.Weights = map[string]float64{multimodal.Agent: 1.0}
	}

	outcome.Level = model.LevelForScore(outcome.Score)

	e.log.Debug("aggregated classifier results",
		"agents", len(results),
		"final_score", outcome.Score,
		"risk_level", outcome.Level,
		"risk_category", outcome.Category,
	)
	return outcome
}

// Round2 rounds a score to the 2-decimal precision used for storage.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
