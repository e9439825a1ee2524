package generator

// DefaultInstruction is used when a request carries no instruction.
const DefaultInstruction = "Summarize in bullet points focusing on action items, owners and deadlines."

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Request is one transcript to summarize.
type Request struct {
	Instruction string
	Transcript  string
}

// Summary is the produced text and where it came from.
type Summary struct {
	Text   string `json:"summary"`
	Source string `json:"source"`
}
