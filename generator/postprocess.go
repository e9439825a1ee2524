package generator

import (
	"errors"
	"strings"
)

const fallbackSentences = 6

// PostProcess 校验模型输出。
func PostProcess(raw string) (string, error) {
	md := strings.TrimSpace(raw)
	if md == "" {
		return "", errors.New("model returned empty markdown")
	}
	return md, nil
}

// FallbackSummary lists the first sentences of the transcript when no model
// answer is available.
func FallbackSummary(transcript string) string {
	var top []string
	for _, s := range strings.Split(transcript, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		top = append(top, s)
		if len(top) == fallbackSentences {
			break
		}
	}
	return "TL;DR:\n- " + strings.Join(top, "; ") + "\n\n(Note: LLM not configured or failed.)"
}
