package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/safelens/veriscan/internal/agent"
	"github.com/safelens/veriscan/internal/config"
	"github.com/safelens/veriscan/internal/core"
	"github.com/safelens/veriscan/internal/core/aggregate"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/server"
	"github.com/safelens/veriscan/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	db, err := store.Open(cfg.Database, appLog)
	if err != nil {
		appLog.Fatal("database connection failed", "error", err)
	}

	timeout := time.Duration(cfg.Classify.TimeoutSeconds) * time.Second

	ctx := context.Background()
	gemini, err := agent.NewGeminiClassifier(ctx, cfg.Gemini)
	if err != nil {
		appLog.Fatal("gemini classifier init failed", "error", err)
	}
	defer gemini.Close()

	groq, err := agent.NewGroqClassifier(cfg.Groq)
	if err != nil {
		appLog.Fatal("groq classifier init failed", "error", err)
	}

	zeroShot, err := agent.NewZeroShotClassifier(cfg.HF, timeout)
	if err != nil {
		appLog.Fatal("zero-shot classifier init failed", "error", err)
	}

	engine := aggregate.NewEngine(gemini, groq, zeroShot, timeout, appLog)

	verifications := store.NewVerificationStore(db, appLog)
	details := store.NewRiskDetailStore(db, appLog)
	members := store.NewMemberStore(db, appLog)

	verifier := core.NewVerifier(engine, verifications, appLog)

	srv := server.New(cfg, verifier, verifications, details, members, appLog)
	r := srv.SetupRouter()

	appLog.Info("starting server", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
