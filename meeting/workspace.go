package meeting

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrMissingTranscript indicates neither a file nor pasted text was given.
	ErrMissingTranscript = errors.New("missing transcript")
	// ErrBusy indicates the same action is already in flight for the workspace.
	ErrBusy = errors.New("request already in progress")
	// ErrNoSummary indicates an edit before any summary exists.
	ErrNoSummary = errors.New("no summary to edit")
)

// SummaryRequest is what the dispatcher sends to the summarization endpoint.
type SummaryRequest struct {
	Transcript  Transcript
	Instruction string
}

// Summarizer produces a summary for a transcript and instruction.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Mailer hands a prepared email to the delivery endpoint.
type Mailer interface {
	SendEmail(ctx context.Context, email Email) error
}

// State is the outcome of the last action of a surface.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Notice is a message shown once to the user after an action.
type Notice struct {
	Kind string // "error" or "info"
	Text string
}

// Workspace holds the state of one page session.
type Workspace struct {
	ID   string
	Form string

	mu          sync.Mutex
	transcript  Transcript
	instruction string
	recipients  string
	result      *Result
	summary     State
	email       State
	notice      *Notice
	touched     time.Time
}

func NewWorkspace(id, form, instruction string) *Workspace {
	return &Workspace{
		ID:          id,
		Form:        form,
		instruction: instruction,
		touched:     time.Now(),
	}
}

// Snapshot is a consistent copy of the workspace for rendering.
type Snapshot struct {
	ID          string
	Form        string
	Transcript  string
	FileName    string
	Instruction string
	Recipients  string
	HasResult   bool
	Original    string
	Edited      string
	Summary     State
	Email       State
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		ID:          w.ID,
		Form:        w.Form,
		Transcript:  w.transcript.Text,
		FileName:    w.transcript.FileName,
		Instruction: w.instruction,
		Recipients:  w.recipients,
		Summary:     w.summary,
		Email:       w.email,
	}
	if w.result != nil {
		s.HasResult = true
		s.Original = w.result.Original()
		s.Edited = w.result.Edited()
	}
	return s
}

// Generate dispatches exactly one summarization request. The result is
// replaced only on success; on failure the previous result, including any
// edit in progress, is kept.
func (w *Workspace) Generate(ctx context.Context, s Summarizer, t Transcript, instruction string) error {
	if t.Empty() {
		return ErrMissingTranscript
	}

	w.mu.Lock()
	if w.summary == StateRequesting {
		w.mu.Unlock()
		return ErrBusy
	}
	w.summary = StateRequesting
	w.transcript = t
	w.instruction = instruction
	w.touched = time.Now()
	w.mu.Unlock()

	summary, err := s.Summarize(ctx, SummaryRequest{Transcript: t, Instruction: instruction})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touched = time.Now()
	if err != nil {
		w.summary = StateFailed
		return err
	}
	w.summary = StateSucceeded
	w.result = NewResult(summary)
	return nil
}

// Edit updates the edited copy of the current summary.
func (w *Workspace) Edit(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return ErrNoSummary
	}
	w.result.Edit(text)
	w.touched = time.Now()
	return nil
}

// SendEmail mails the edited summary to the recipients parsed from input and
// returns the list that was used.
func (w *Workspace) SendEmail(ctx context.Context, m Mailer, recipientInput string) ([]string, error) {
	w.mu.Lock()
	w.recipients = recipientInput
	if w.result == nil {
		w.mu.Unlock()
		return nil, ErrNoSummary
	}
	email, err := BuildEmail(w.result.Edited(), recipientInput)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.email == StateRequesting {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.email = StateRequesting
	w.touched = time.Now()
	w.mu.Unlock()

	err = m.SendEmail(ctx, email)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touched = time.Now()
	if err != nil {
		w.email = StateFailed
		return nil, err
	}
	w.email = StateSucceeded
	return email.Recipients, nil
}

// SetNotice stores a message for the next render.
func (w *Workspace) SetNotice(kind, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notice = &Notice{Kind: kind, Text: text}
}

// TakeNotice returns the pending message and clears it.
func (w *Workspace) TakeNotice() *Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.notice
	w.notice = nil
	return n
}

// IdleSince reports whether the workspace was untouched since t.
func (w *Workspace) IdleSince(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touched.Before(t) && w.summary != StateRequesting && w.email != StateRequesting
}
