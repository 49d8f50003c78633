package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

type VerificationStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationStore(db *gorm.DB, baseLog *logger.Logger) *VerificationStore {
	return &VerificationStore{db: db, log: baseLog.With("store", "verification")}
}

// SaveVerification writes one verification plus its detail rows in a single
// transaction, then links the verification to its first detail row. Any
// failure rolls the whole write back; no partial state is ever visible.
func (s *VerificationStore) SaveVerification(ctx context.Context, v *model.Verification, details []*model.RiskDetail) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}

		if len(details) == 0 {
			return nil
		}

		for _, d := range details {
			d.VerificationID = v.VerificationID
		}
		if err := tx.Create(&details).Error; err != nil {
			return err
		}

		firstID := details[0].RiskDetailID
		if err := tx.Model(v).Update("risk_detail_id", firstID).Error; err != nil {
			return err
		}
		v.RiskDetailID = &firstID
		return nil
	})
}

func (s *VerificationStore) Create(ctx context.Context, v *model.Verification) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *VerificationStore) Get(ctx context.Context, id int64) (*model.Verification, error) {
	var v model.Verification
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &v, nil
}

func (s *VerificationStore) List(ctx context.Context, skip, limit int) ([]model.Verification, error) {
	var results []model.Verification
	err := s.db.WithContext(ctx).
		Order("verification_id DESC").
		Offset(skip).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// VerificationPatch carries the mutable fields of a verification; nil
// fields are left untouched.
type VerificationPatch struct {
	MemberID       *int64   `json:"member_id"`
	InputContent   *string  `json:"input_content"`
	FinalRiskScore *float64 `json:"final_risk_score"`
	RiskLevel      *string  `json:"risk_level"`
}

func (s *VerificationStore) Update(ctx context.Context, id int64, patch VerificationPatch) (*model.Verification, error) {
	updates := map[string]interface{}{}
	if patch.MemberID != nil {
		updates["member_id"] = *patch.MemberID
	}
	if patch.InputContent != nil {
		updates["input_content"] = *patch.InputContent
	}
	if patch.FinalRiskScore != nil {
		updates["final_risk_score"] = *patch.FinalRiskScore
	}
	if patch.RiskLevel != nil {
		updates["risk_level"] = *patch.RiskLevel
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&model.Verification{}).
			Where("verification_id = ?", id).
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

// Delete removes a verification and its detail rows together; the explicit
// child delete keeps cascade behavior identical across postgres and the
// sqlite driver used in tests.
func (s *VerificationStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.Verification
		if err := tx.First(&v, id).Error; err != nil {
			return notFoundOr(err)
		}
		if err := tx.Where("verification_id = ?", id).Delete(&model.RiskDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&v).Error
	})
}
