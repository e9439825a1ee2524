package generator

import "fmt"

const systemPrompt = "You are a meeting minutes assistant. Output in concise Markdown " +
	"with sections: TL;DR, Key Decisions, Action Items (owner, due), Risks/Blockers, Next Steps. " +
	"Follow the user's instruction exactly."

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

// BuildSummaryPrompt pairs the fixed minutes-assistant system prompt with the
// user's instruction and transcript.
func BuildSummaryPrompt(req Request) Prompt {
	return Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf("INSTRUCTION: %s\n\nTRANSCRIPT:\n%s", req.Instruction, req.Transcript),
	}
}
