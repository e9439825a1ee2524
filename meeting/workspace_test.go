package meeting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"meeting_notes_summarizer/meeting"
)

type summarizerMock struct {
	mock.Mock
}

func (m *summarizerMock) Summarize(ctx context.Context, req meeting.SummaryRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mailerMock struct {
	mock.Mock
}

func (m *mailerMock) SendEmail(ctx context.Context, email meeting.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func TestWorkspace_GenerateSeedsBothCopies(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", meeting.DefaultInstruction)

	transcript := meeting.FromPaste("Alice: ship Friday")
	s := &summarizerMock{}
	s.On("Summarize", ctx, meeting.SummaryRequest{Transcript: transcript, Instruction: "bullets"}).Return("S", nil).Once()

	require.NoError(t, ws.Generate(ctx, s, transcript, "bullets"))
	snap := ws.Snapshot()
	require.True(t, snap.HasResult)
	require.Equal(t, "S", snap.Original)
	require.Equal(t, "S", snap.Edited)
	require.Equal(t, meeting.StateSucceeded, snap.Summary)
	require.Equal(t, "bullets", snap.Instruction)

	require.NoError(t, ws.Edit("S edited"))
	snap = ws.Snapshot()
	require.Equal(t, "S", snap.Original)
	require.Equal(t, "S edited", snap.Edited)
	s.AssertExpectations(t)
}

func TestWorkspace_GenerateFailureKeepsEdit(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", "")
	transcript := meeting.FromPaste("notes")

	s := &summarizerMock{}
	s.On("Summarize", ctx, mock.Anything).Return("first", nil).Once()
	require.NoError(t, ws.Generate(ctx, s, transcript, "i"))
	require.NoError(t, ws.Edit("my edit"))

	backendErr := errors.New("status 500")
	s.On("Summarize", ctx, mock.Anything).Return("", backendErr).Once()
	err := ws.Generate(ctx, s, transcript, "i")
	require.ErrorIs(t, err, backendErr)

	snap := ws.Snapshot()
	require.Equal(t, "first", snap.Original)
	require.Equal(t, "my edit", snap.Edited)
	require.Equal(t, meeting.StateFailed, snap.Summary)
}

func TestWorkspace_GenerateMissingTranscript(t *testing.T) {
	ws := meeting.NewWorkspace("ws1", "full", "")
	s := &summarizerMock{}

	err := ws.Generate(context.Background(), s, meeting.FromPaste("   "), "i")
	require.ErrorIs(t, err, meeting.ErrMissingTranscript)
	s.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	require.Equal(t, meeting.StateIdle, ws.Snapshot().Summary)
}

type blockingSummarizer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSummarizer) Summarize(ctx context.Context, _ meeting.SummaryRequest) (string, error) {
	close(b.started)
	select {
	case <-b.release:
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestWorkspace_GenerateRejectsConcurrentRequest(t *testing.T) {
	ws := meeting.NewWorkspace("ws1", "full", "")
	b := &blockingSummarizer{started: make(chan struct{}), release: make(chan struct{})}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.Generate(context.Background(), b, meeting.FromPaste("notes"), "i")
	}()
	<-b.started
	require.Equal(t, meeting.StateRequesting, ws.Snapshot().Summary)

	other := &summarizerMock{}
	err := ws.Generate(context.Background(), other, meeting.FromPaste("notes"), "i")
	require.ErrorIs(t, err, meeting.ErrBusy)
	other.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)

	close(b.release)
	require.NoError(t, <-errCh)
	require.Equal(t, "done", ws.Snapshot().Original)
}

func TestWorkspace_GenerateCancelled(t *testing.T) {
	ws := meeting.NewWorkspace("ws1", "full", "")
	b := &blockingSummarizer{started: make(chan struct{}), release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.Generate(ctx, b, meeting.FromPaste("notes"), "i")
	}()
	<-b.started
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.False(t, ws.Snapshot().HasResult)
}

func TestWorkspace_EditBeforeSummary(t *testing.T) {
	ws := meeting.NewWorkspace("ws1", "full", "")
	require.ErrorIs(t, ws.Edit("x"), meeting.ErrNoSummary)
}

func TestWorkspace_SendEmail(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", "")
	s := &summarizerMock{}
	s.On("Summarize", ctx, mock.Anything).Return("line1\nline2", nil)
	require.NoError(t, ws.Generate(ctx, s, meeting.FromPaste("notes"), "i"))

	m := &mailerMock{}
	m.On("SendEmail", ctx, meeting.Email{
		Subject:    "Meeting Summary",
		HTML:       "<p>line1</p><p>line2</p>",
		Recipients: []string{"a@x.com", "b@y.com"},
	}).Return(nil).Once()

	sent, err := ws.SendEmail(ctx, m, "a@x.com, , b@y.com ,")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.com", "b@y.com"}, sent)
	require.Equal(t, meeting.StateSucceeded, ws.Snapshot().Email)
	m.AssertExpectations(t)
}

func TestWorkspace_SendEmailUsesEditedCopy(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", "")
	s := &summarizerMock{}
	s.On("Summarize", ctx, mock.Anything).Return("original", nil)
	require.NoError(t, ws.Generate(ctx, s, meeting.FromPaste("notes"), "i"))
	require.NoError(t, ws.Edit("edited <b>"))

	m := &mailerMock{}
	m.On("SendEmail", ctx, mock.MatchedBy(func(e meeting.Email) bool {
		return e.HTML == "<p>edited &lt;b&gt;</p>"
	})).Return(nil).Once()

	_, err := ws.SendEmail(ctx, m, "a@x.com")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestWorkspace_SendEmailWithoutRecipients(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", "")
	s := &summarizerMock{}
	s.On("Summarize", ctx, mock.Anything).Return("S", nil)
	require.NoError(t, ws.Generate(ctx, s, meeting.FromPaste("notes"), "i"))

	m := &mailerMock{}
	_, err := ws.SendEmail(ctx, m, " , ")
	require.ErrorIs(t, err, meeting.ErrNoRecipients)
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	require.Equal(t, meeting.StateIdle, ws.Snapshot().Email)
}

func TestWorkspace_SendEmailFailure(t *testing.T) {
	ctx := context.Background()
	ws := meeting.NewWorkspace("ws1", "full", "")
	s := &summarizerMock{}
	s.On("Summarize", ctx, mock.Anything).Return("S", nil)
	require.NoError(t, ws.Generate(ctx, s, meeting.FromPaste("notes"), "i"))

	m := &mailerMock{}
	m.On("SendEmail", ctx, mock.Anything).Return(errors.New("smtp down"))
	_, err := ws.SendEmail(ctx, m, "a@x.com")
	require.ErrorContains(t, err, "smtp down")
	require.Equal(t, meeting.StateFailed, ws.Snapshot().Email)
	require.Equal(t, "S", ws.Snapshot().Edited)
}

func TestWorkspace_Notice(t *testing.T) {
	ws := meeting.NewWorkspace("ws1", "full", "")
	require.Nil(t, ws.TakeNotice())
	ws.SetNotice("info", "Email sent!")
	require.Equal(t, &meeting.Notice{Kind: "info", Text: "Email sent!"}, ws.TakeNotice())
	require.Nil(t, ws.TakeNotice())
}
