package core

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/core/aggregate"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

// VerificationSaver is the persistence capability the verifier depends on:
// one parent row plus its detail rows written atomically, IDs assigned and
// the first-detail backlink set on success.
type VerificationSaver interface {
	SaveVerification(ctx context.Context, v *model.Verification, details []*model.RiskDetail) error
}

type SubmitInput struct {
	MemberID  *int64
	Text      string
	Image     []byte
	ImageMIME string
}

type FinalResult struct {
	RiskScore    int             `json:"risk_score"`
	RiskLevel    model.RiskLevel `json:"risk_level"`
	RiskCategory string          `json:"risk_category"`
}

type SavedInfo struct {
	VerificationHistory bool `json:"verification_history"`
	RiskDetailCount     int  `json:"risk_detail_count"`
}

type SubmitResult struct {
	VerificationID int64                   `json:"verification_id"`
	Final          FinalResult             `json:"final"`
	Agents         map[string]agent.Result `json:"agents"`
	Saved          SavedInfo               `json:"saved"`
}

// Verifier is the entry point of the verification flow:
// validate -> classify -> aggregate -> persist -> respond.
type Verifier struct {
	engine *aggregate.Engine
	saver  VerificationSaver
	log    *logger.Logger
}

func NewVerifier(engine *aggregate.Engine, saver VerificationSaver, baseLog *logger.Logger) *Verifier {
	return &Verifier{
		engine: engine,
		saver:  saver,
		log:    baseLog.With("component", "verifier"),
	}
}

func (v *Verifier) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	text := strings.TrimSpace(in.Text)
	hasImage := in.Image != nil

	if text == "" && !hasImage {
		return nil, &InputError{Msg: "Provide text and/or image"}
	}
	if hasImage && len(in.Image) == 0 {
		return nil, &InputError{Msg: "Empty image file"}
	}

	kind := inputKind(text, hasImage)

	outcome, err := v.engine.Run(ctx, agent.Input{
		Text:      text,
		Image:     in.Image,
		ImageMIME: in.ImageMIME,
	})
	if err != nil {
		return nil, err
	}

	finalScore := aggregate.Round2(outcome.Score)
	level := string(outcome.Level)

	verification := &model.Verification{
		MemberID:       in.MemberID,
		InputContent:   string(kind),
		FinalRiskScore: &finalScore,
		RiskLevel:      &level,
	}

	details := make([]*model.RiskDetail, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		details = append(details, &model.RiskDetail{
			RiskCategory:        namespacedCategory(res),
			Weight:              aggregate.Round2(outcome.Weights[res.Agent]),
			IndividualRiskScore: aggregate.Round2(res.Score),
			FinalRiskScore:      &finalScore,
			RiskLevel:           &level,
		})
	}

	if err := v.saver.SaveVerification(ctx, verification, details); err != nil {
		v.log.Error("verification save failed", "error", err)
		return nil, &StorageError{Err: err}
	}

	agents := make(map[string]agent.Result, len(outcome.Results))
	for _, res := range outcome.Results {
		agents[res.Agent] = res
	}

	v.log.Info("verification completed",
		"verification_id", verification.VerificationID,
		"input_content", kind,
		"risk_level", outcome.Level,
		"detail_rows", len(details),
	)

	return &SubmitResult{
		VerificationID: verification.VerificationID,
		Final: FinalResult{
			RiskScore:    int(math.Round(outcome.Score * 100)),
			RiskLevel:    outcome.Level,
			RiskCategory: outcome.Category,
		},
		Agents: agents,
		Saved: SavedInfo{
			VerificationHistory: true,
			RiskDetailCount:     len(details),
		},
	}, nil
}

func inputKind(text string, hasImage bool) model.InputKind {
	switch {
	case text != "" && hasImage:
		return model.InputMixed
	case hasImage:
		return model.InputImage
	default:
		return model.InputText
	}
}

// namespacedCategory prefixes a detail-row category with its agent name,
// e.g. "gemini:deepfake", and falls back to the no-risk label.
func namespacedCategory(res agent.Result) string {
	category := res.Category
	if category == "" {
		category = agent.DefaultCategory
	}
	namespaced := fmt.Sprintf("%s:%s", res.Agent, category)
	if len(namespaced) > 50 {
		namespaced = namespaced[:50]
	}
	return namespaced
}
