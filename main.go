package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"meeting_notes_summarizer/backend"
	"meeting_notes_summarizer/client"
	"meeting_notes_summarizer/config"
	"meeting_notes_summarizer/generator"
	"meeting_notes_summarizer/mailer"
	"meeting_notes_summarizer/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional; env vars override)")
	serve := flag.Bool("serve", false, "start the web UI")
	runBackend := flag.Bool("backend", false, "start the summarize/email API")
	addr := flag.String("addr", "", "web UI listen address (overrides server_addr)")
	backendAddr := flag.String("backend-addr", "", "API listen address (overrides backend_addr)")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *backendAddr != "" {
		cfg.BackendAddr = *backendAddr
	}

	level := parseLogLevel(cfg.Log.Level)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 未指定模式时同时启动前端和后端
	if !*serve && !*runBackend {
		*serve, *runBackend = true, true
	}

	var servers []*http.Server
	if *runBackend {
		h, err := buildBackend(cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		servers = append(servers, &http.Server{Addr: cfg.BackendAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second})
	}
	if *serve {
		h, err := buildUI(cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		servers = append(servers, &http.Server{Addr: cfg.ServerAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, servers); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or one server fails, then shuts all down.
func run(ctx context.Context, logger *slog.Logger, servers []*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func buildUI(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	c, err := client.New(client.Options{
		BaseURL:       cfg.Backend.BaseURL,
		SummarizePath: cfg.Backend.SummarizePath,
		ProxyPath:     cfg.Backend.ProxyPath,
		SendEmailPath: cfg.Backend.SendEmailPath,
		Timeout:       cfg.Backend.Timeout,
	})
	if err != nil {
		return nil, err
	}
	srv, err := server.New(server.Options{
		Client:       c,
		Forms:        server.DefaultForms(cfg.Backend.SummarizePath),
		Logger:       logger.With("component", "ui"),
		WorkspaceTTL: cfg.UI.WorkspaceTTL,
		MaxUpload:    cfg.UI.MaxUpload,
	})
	if err != nil {
		return nil, err
	}
	return srv.Routes(), nil
}

func buildBackend(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	logger = logger.With("component", "backend")

	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		logger.Warn("no llm provider configured, summaries use the local fallback")
	}
	agent := generator.NewAgent(llm, logger)

	providers, err := buildMailProviders(cfg.Email)
	if err != nil {
		return nil, err
	}
	dispatcher := mailer.NewDispatcher(logger, providers...)

	srv, err := backend.New(agent, dispatcher, logger, cfg.UI.MaxUpload)
	if err != nil {
		return nil, err
	}
	return srv.Routes(), nil
}

// buildLLM returns nil without error when no provider is usable; the agent
// then serves fallback summaries.
func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	provider := cfg.Provider
	if provider == "" {
		switch {
		case cfg.OpenAI.APIKey != "":
			provider = "openai"
		case cfg.Groq.APIKey != "":
			provider = "groq"
		default:
			return nil, nil
		}
	}

	settings := &generator.LLMSettings{
		Provider:    provider,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
	switch provider {
	case "openai":
		settings.APIKey, settings.Model, settings.BaseURL = cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL
	case "groq":
		// Groq 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.Groq.BaseURL == "" {
			return nil, errors.New("llm provider groq requires base_url (OpenAI-compatible endpoint)")
		}
		settings.APIKey, settings.Model, settings.BaseURL = cfg.Groq.APIKey, cfg.Groq.Model, cfg.Groq.BaseURL
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", provider)
	}
	return generator.NewOpenAILLMFromConfig(settings)
}

func buildMailProviders(cfg config.EmailConfig) ([]mailer.Provider, error) {
	var providers []mailer.Provider
	if cfg.Resend.APIKey != "" {
		r, err := mailer.NewResend(cfg.Resend.APIKey, cfg.Resend.From, cfg.Resend.BaseURL, cfg.Resend.Timeout)
		if err != nil {
			return nil, err
		}
		providers = append(providers, r)
	}
	if cfg.SMTP.Configured() {
		s, err := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			return nil, err
		}
		providers = append(providers, s)
	}
	return providers, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
