package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the front-end and the backend. It is resolved
// once at startup and passed down by value.
type Config struct {
	ServerAddr  string        `yaml:"server_addr"`
	BackendAddr string        `yaml:"backend_addr"`
	Backend     BackendConfig `yaml:"backend"`
	UI          UIConfig      `yaml:"ui"`
	LLM         LLMConfig     `yaml:"llm"`
	Email       EmailConfig   `yaml:"email"`
	Log         LogConfig     `yaml:"log"`
}

// BackendConfig locates the summarization/email service the front-end talks to.
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url"`
	SummarizePath string        `yaml:"summarize_path"`
	ProxyPath     string        `yaml:"proxy_path"`
	SendEmailPath string        `yaml:"send_email_path"`
	Timeout       time.Duration `yaml:"timeout"`
}

type UIConfig struct {
	WorkspaceTTL time.Duration `yaml:"workspace_ttl"`
	MaxUpload    int64         `yaml:"max_upload_bytes"`
}

// LLMConfig selects the summarization model. Provider may be empty, in which
// case the first provider with an API key wins (openai, then groq).
type LLMConfig struct {
	Provider    string         `yaml:"provider"`
	OpenAI      ProviderConfig `yaml:"openai"`
	Groq        ProviderConfig `yaml:"groq"`
	Temperature float64        `yaml:"temperature"`
	MaxTokens   int64          `yaml:"max_tokens"`
	Timeout     time.Duration  `yaml:"timeout"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type EmailConfig struct {
	Resend ResendConfig `yaml:"resend"`
	SMTP   SMTPConfig   `yaml:"smtp"`
}

type ResendConfig struct {
	APIKey  string        `yaml:"api_key"`
	From    string        `yaml:"from"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Configured reports whether enough SMTP settings exist to attempt delivery.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		ServerAddr:  ":3000",
		BackendAddr: ":8000",
		Backend: BackendConfig{
			BaseURL:       "http://127.0.0.1:8000",
			SummarizePath: "/summarize/",
			ProxyPath:     "/summarize/text/",
			SendEmailPath: "/send-email/",
			Timeout:       60 * time.Second,
		},
		UI: UIConfig{
			WorkspaceTTL: 2 * time.Hour,
			MaxUpload:    32 << 20,
		},
		LLM: LLMConfig{
			OpenAI: ProviderConfig{
				Model: "gpt-4o-mini",
			},
			Groq: ProviderConfig{
				Model:   "llama-3.1-8b-instant",
				BaseURL: "https://api.groq.com/openai/v1/",
			},
			Temperature: 0.2,
			MaxTokens:   1200,
			Timeout:     60 * time.Second,
		},
		Email: EmailConfig{
			Resend: ResendConfig{
				From:    "noreply@example.com",
				BaseURL: "https://api.resend.com",
				Timeout: 30 * time.Second,
			},
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML (or JSON) file and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("SUMMARIZER_SERVER_ADDR", &cfg.ServerAddr)
	setString("SUMMARIZER_BACKEND_ADDR", &cfg.BackendAddr)
	setString("SUMMARIZER_BACKEND_URL", &cfg.Backend.BaseURL)
	setString("SUMMARIZER_LOG_LEVEL", &cfg.Log.Level)

	setString("OPENAI_API_KEY", &cfg.LLM.OpenAI.APIKey)
	setString("OPENAI_MODEL", &cfg.LLM.OpenAI.Model)
	setString("GROQ_API_KEY", &cfg.LLM.Groq.APIKey)
	setString("GROQ_MODEL", &cfg.LLM.Groq.Model)

	setString("RESEND_API_KEY", &cfg.Email.Resend.APIKey)
	setString("RESEND_FROM", &cfg.Email.Resend.From)

	setString("SMTP_HOST", &cfg.Email.SMTP.Host)
	setString("SMTP_USER", &cfg.Email.SMTP.User)
	setString("SMTP_PASS", &cfg.Email.SMTP.Password)
	setString("SMTP_FROM", &cfg.Email.SMTP.From)
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.Email.SMTP.Port = port
	}
	if cfg.Email.SMTP.From == "" {
		cfg.Email.SMTP.From = cfg.Email.Resend.From
	}
	return nil
}

// Validate rejects settings that would only fail later at request time.
func (c Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url must be http(s), got %q", c.Backend.BaseURL)
	}
	for name, p := range map[string]string{
		"backend.summarize_path":  c.Backend.SummarizePath,
		"backend.proxy_path":      c.Backend.ProxyPath,
		"backend.send_email_path": c.Backend.SendEmailPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with /, got %q", name, p)
		}
	}
	if c.Backend.Timeout < 0 || c.LLM.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	switch c.LLM.Provider {
	case "", "openai", "groq", "mock":
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	return nil
}
