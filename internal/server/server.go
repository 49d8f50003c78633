package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/safelens/veriscan/internal/config"
	"github.com/safelens/veriscan/internal/core"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/store"
)

type Server struct {
	cfg           *config.Config
	verifier      *core.Verifier
	verifications *store.VerificationStore
	details       *store.RiskDetailStore
	members       *store.MemberStore
	log           *logger.Logger
}

func New(
	cfg *config.Config,
	verifier *core.Verifier,
	verifications *store.VerificationStore,
	details *store.RiskDetailStore,
	members *store.MemberStore,
	baseLog *logger.Logger,
) *Server {
	return &Server{
		cfg:           cfg,
		verifier:      verifier,
		verifications: verifications,
		details:       details,
		members:       members,
		log:           baseLog.With("component", "server"),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	if s.cfg.Server.Mode == "prod" || s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(cors.Default())

	r.GET("/healthz", s.Healthz)

	api := r.Group("/api")
	{
		api.POST("/verify", s.Verify)
		api.POST("/predict/media", s.PredictMedia)
		api.GET("/ai/health", s.AgentHealth)

		v := api.Group("/verifications")
		{
			v.POST("", s.CreateVerification)
			v.GET("", s.ListVerifications)
			v.GET("/:id", s.GetVerification)
			v.PATCH("/:id", s.PatchVerification)
			v.DELETE("/:id", s.DeleteVerification)
		}

		d := api.Group("/risk-details")
		{
			d.POST("", s.CreateRiskDetail)
			d.GET("/:id", s.GetRiskDetail)
			d.GET("/by-verification/:verification_id", s.ListRiskDetailsByVerification)
			d.PATCH("/:id", s.PatchRiskDetail)
			d.DELETE("/:id", s.DeleteRiskDetail)
		}

		m := api.Group("/members")
		{
			m.POST("", s.CreateMember)
			m.GET("", s.ListMembers)
			m.GET("/:id", s.GetMember)
			m.DELETE("/:id", s.DeleteMember)
		}
	}

	return r
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// AgentHealth reports per-agent configuration state. Token values are never
// echoed, only presence and length.
func (s *Server) AgentHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"gemini": gin.H{
			"has_key": s.cfg.Gemini.APIKey != "",
			"model":   s.cfg.Gemini.Model,
		},
		"groq": gin.H{
			"has_key": s.cfg.Groq.APIKey != "",
			"model":   s.cfg.Groq.Model,
		},
		"hf": gin.H{
			"has_key":   s.cfg.HF.Token != "",
			"token_len": len(s.cfg.HF.Token),
			"model":     s.cfg.HF.Model,
		},
	})
}
