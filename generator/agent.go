package generator

import (
	"context"
	"log/slog"
	"strings"
)

// Agent produces meeting summaries. A nil LLM, or any model failure, yields
// the fallback summary instead of an error. Blank transcripts are summarized
// like any other.
type Agent struct {
	llm    LLMClient
	logger *slog.Logger
}

func NewAgent(llm LLMClient, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{llm: llm, logger: logger}
}

func (a *Agent) Summarize(ctx context.Context, req Request) (Summary, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		req.Instruction = DefaultInstruction
	}

	if a.llm != nil {
		raw, err := a.llm.Complete(ctx, BuildSummaryPrompt(req))
		if err == nil {
			raw, err = PostProcess(raw)
		}
		if err == nil {
			return Summary{Text: raw, Source: SourceLLM}, nil
		}
		a.logger.Warn("llm call failed, using fallback summary", "error", err)
	}

	return Summary{Text: FallbackSummary(req.Transcript), Source: SourceFallback}, nil
}
