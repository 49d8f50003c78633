package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

type RiskDetailStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRiskDetailStore(db *gorm.DB, baseLog *logger.Logger) *RiskDetailStore {
	return &RiskDetailStore{db: db, log: baseLog.With("store", "risk_detail")}
}

func (s *RiskDetailStore) Create(ctx context.Context, d *model.RiskDetail) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *RiskDetailStore) Get(ctx context.Context, id int64) (*model.RiskDetail, error) {
	var d model.RiskDetail
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &d, nil
}

// ListByVerification returns a verification's detail rows in creation
// order, which is also agent-invocation order.
func (s *RiskDetailStore) ListByVerification(ctx context.Context, verificationID int64) ([]model.RiskDetail, error) {
	var results []model.RiskDetail
	err := s.db.WithContext(ctx).
		Where("verification_id = ?", verificationID).
		Order("risk_detail_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

type RiskDetailPatch struct {
	RiskCategory        *string  `json:"risk_category"`
	Weight              *float64 `json:"weight"`
	IndividualRiskScore *float64 `json:"individual_risk_score"`
	FinalRiskScore      *float64 `json:"final_risk_score"`
	RiskLevel           *string  `json:"risk_level"`
}

func (s *RiskDetailStore) Update(ctx context.Context, id int64, patch RiskDetailPatch) (*model.RiskDetail, error) {
	updates := map[string]interface{}{}
	if patch.RiskCategory != nil {
		updates["risk_category"] = *patch.RiskCategory
	}
	if patch.Weight != nil {
		updates["weight"] = *patch.Weight
	}
	if patch.IndividualRiskScore != nil {
		updates["individual_risk_score"] = *patch.IndividualRiskScore
	}
	if patch.FinalRiskScore != nil {
		updates["final_risk_score"] = *patch.FinalRiskScore
	}
	if patch.RiskLevel != nil {
		updates["risk_level"] = *patch.RiskLevel
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&model.RiskDetail{}).
			Where("risk_detail_id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *RiskDetailStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.RiskDetail{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
