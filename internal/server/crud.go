package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safelens/veriscan/internal/model"
	"github.com/safelens/veriscan/internal/store"
)

type createVerificationRequest struct {
	MemberID     *int64 `json:"member_id"`
	InputContent string `json:"input_content" binding:"required,max=20"`
}

func (s *Server) CreateVerification(c *gin.Context) {
	var req createVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v := &model.Verification{
		MemberID:     req.MemberID,
		InputContent: req.InputContent,
	}
	if err := s.verifications.Create(c.Request.Context(), v); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (s *Server) GetVerification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := s.verifications.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) ListVerifications(c *gin.Context) {
	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 20)

	results, err := s.verifications.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) PatchVerification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var patch store.VerificationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	v, err := s.verifications.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) DeleteVerification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.verifications.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createRiskDetailRequest struct {
	VerificationID      int64    `json:"verification_id" binding:"required"`
	RiskCategory        string   `json:"risk_category" binding:"required,max=50"`
	Weight              float64  `json:"weight"`
	IndividualRiskScore float64  `json:"individual_risk_score"`
	FinalRiskScore      *float64 `json:"final_risk_score"`
	RiskLevel           *string  `json:"risk_level"`
}

func (s *Server) CreateRiskDetail(c *gin.Context) {
	var req createRiskDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	d := &model.RiskDetail{
		VerificationID:      req.VerificationID,
		RiskCategory:        req.RiskCategory,
		Weight:              req.Weight,
		IndividualRiskScore: req.IndividualRiskScore,
		FinalRiskScore:      req.FinalRiskScore,
		RiskLevel:           req.RiskLevel,
	}
	if err := s.details.Create(c.Request.Context(), d); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) GetRiskDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := s.details.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) ListRiskDetailsByVerification(c *gin.Context) {
	id, ok := pathID(c, "verification_id")
	if !ok {
		return
	}
	results, err := s.details.ListByVerification(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) PatchRiskDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var patch store.RiskDetailPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	d, err := s.details.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) DeleteRiskDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.details.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
