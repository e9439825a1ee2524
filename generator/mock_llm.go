package generator

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("## TL;DR\n\n")
	sb.WriteString("- Mock summary, no model was called.\n\n")
	sb.WriteString("## Action Items\n\n")
	for _, line := range strings.Split(prompt.User, "\n") {
		if strings.HasPrefix(line, "INSTRUCTION: ") {
			sb.WriteString("- Follow up on: ")
			sb.WriteString(strings.TrimPrefix(line, "INSTRUCTION: "))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
