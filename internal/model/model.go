package model

import (
	"time"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// LevelForScore buckets a [0,1] score into a discrete risk level.
// MEDIUM and HIGH are inclusive at their lower bound.
func LevelForScore(score01 float64) RiskLevel {
	if score01 >= 0.67 {
		return RiskHigh
	}
	if score01 >= 0.34 {
		return RiskMedium
	}
	return RiskLow
}

type InputKind string

const (
	InputText  InputKind = "text"
	InputImage InputKind = "image"
	InputMixed InputKind = "mixed"
)

type Member struct {
	MemberID  int64     `gorm:"primaryKey;autoIncrement" json:"member_id"`
	LoginID   string    `gorm:"size:50;uniqueIndex;not null" json:"login_id"`
	Nickname  string    `gorm:"size:50" json:"nickname"`
	Email     string    `gorm:"size:100" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Member) TableName() string { return "member" }

// Verification is one risk-assessment event. FinalRiskScore and RiskLevel are
// set together at aggregate creation; RiskDetailID points at the first detail
// row in agent-invocation order.
type Verification struct {
	VerificationID int64     `gorm:"primaryKey;autoIncrement" json:"verification_id"`
	MemberID       *int64    `json:"member_id"`
	InputContent   string    `gorm:"size:20;not null" json:"input_content"`
	RiskDetailID   *int64    `json:"risk_detail_id"`
	FinalRiskScore *float64  `gorm:"type:numeric(3,2)" json:"final_risk_score"`
	RiskLevel      *string   `gorm:"size:20" json:"risk_level"`
	VerifiedAt     time.Time `gorm:"autoCreateTime;<-:create" json:"verified_at"`

	Details []RiskDetail `gorm:"foreignKey:VerificationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Verification) TableName() string { return "verification_history" }

// RiskDetail is one agent's weighted contribution to a Verification.
// FinalRiskScore and RiskLevel mirror the parent's aggregate at write time;
// they are a snapshot for query convenience, not independently authoritative.
type RiskDetail struct {
	RiskDetailID        int64    `gorm:"primaryKey;autoIncrement" json:"risk_detail_id"`
	VerificationID      int64    `gorm:"not null;index" json:"verification_id"`
	RiskCategory        string   `gorm:"size:50;not null" json:"risk_category"`
	Weight              float64  `gorm:"type:numeric(4,2);not null;check:weight >= 0 AND weight <= 1" json:"weight"`
	IndividualRiskScore float64  `gorm:"type:numeric(4,2);not null" json:"individual_risk_score"`
	FinalRiskScore      *float64 `gorm:"type:numeric(4,2)" json:"final_risk_score"`
	RiskLevel           *string  `gorm:"size:20" json:"risk_level"`
}

func (RiskDetail) TableName() string { return "risk_detail" }
