package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"`
}

type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode)
}

type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type GroqConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type HFConfig struct {
	Token   string `toml:"token"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type ClassifyConfig struct {
	// TimeoutSeconds bounds each outbound classifier call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Groq     GroqConfig     `toml:"groq"`
	HF       HFConfig       `toml:"hf"`
	Classify ClassifyConfig `toml:"classify"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.Server.Port, "PORT")
	overrideString(&c.Server.Mode, "SERVER_MODE")

	overrideString(&c.Database.Host, "POSTGRES_HOST")
	overrideString(&c.Database.Port, "POSTGRES_PORT")
	overrideString(&c.Database.User, "POSTGRES_USER")
	overrideString(&c.Database.Password, "POSTGRES_PASSWORD")
	overrideString(&c.Database.Name, "POSTGRES_NAME")

	overrideString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&c.Gemini.Model, "GEMINI_MODEL")

	overrideString(&c.Groq.APIKey, "GROQ_API_KEY")
	overrideString(&c.Groq.Model, "GROQ_MODEL")
	overrideString(&c.Groq.BaseURL, "GROQ_BASE_URL")

	overrideString(&c.HF.Token, "HF_TOKEN")
	overrideString(&c.HF.Model, "HF_MODEL")
	overrideString(&c.HF.BaseURL, "HF_BASE_URL")

	if v := os.Getenv("CLASSIFY_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Classify.TimeoutSeconds = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.3-70b-versatile"
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.HF.Model == "" {
		c.HF.Model = "facebook/bart-large-mnli"
	}
	if c.HF.BaseURL == "" {
		c.HF.BaseURL = "https://router.huggingface.co/hf-inference/models"
	}
	if c.Classify.TimeoutSeconds <= 0 {
		c.Classify.TimeoutSeconds = 45
	}
}

// Validate fails fast on credentials the classifiers cannot run without,
// so a misconfigured agent is caught at startup rather than mid-request.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is not set (GEMINI_API_KEY)")
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("groq.api_key is not set (GROQ_API_KEY)")
	}
	if c.HF.Token == "" {
		return fmt.Errorf("hf.token is not set (HF_TOKEN)")
	}
	return nil
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
