package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meeting_notes_summarizer/meeting"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:       srv.URL + "/",
		SummarizePath: "/summarize/",
		ProxyPath:     "/summarize/text/",
		SendEmailPath: "/send-email/",
		Timeout:       5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClient_SummarizePastedText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/summarize/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Alice: ship Friday", r.FormValue("transcript"))
		require.Equal(t, "bullets", r.FormValue("instruction"))
		_, _, err := r.FormFile("file")
		require.ErrorIs(t, err, http.ErrMissingFile)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"- ship Friday"}`))
	})

	summary, err := c.Summarize(context.Background(), meeting.SummaryRequest{
		Transcript:  meeting.FromPaste("Alice: ship Friday"),
		Instruction: "bullets",
	})
	require.NoError(t, err)
	require.Equal(t, "- ship Friday", summary)
}

func TestClient_SummarizeUploadedFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "notes.txt", header.Filename)
		require.Equal(t, "from file", string(data))
		require.Empty(t, r.FormValue("transcript"))
		_, _ = w.Write([]byte(`{"other":"field"}`))
	})

	transcript := meeting.Transcript{Text: "from file", FileName: "notes.txt", File: []byte("from file")}
	summary, err := c.Summarize(context.Background(), meeting.SummaryRequest{Transcript: transcript, Instruction: "i"})
	require.NoError(t, err)
	require.Equal(t, "", summary)
}

func TestClient_SummarizeBackendRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Provide a file or transcript text."}`))
	})

	_, err := c.Summarize(context.Background(), meeting.SummaryRequest{Transcript: meeting.FromPaste("x")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "Provide a file or transcript text.", apiErr.Detail)
}

func TestClient_SummarizeRejectionWithoutDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := c.Summarize(context.Background(), meeting.SummaryRequest{Transcript: meeting.FromPaste("x")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, `{"message":"boom"}`, apiErr.Detail)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, SummarizePath: "/summarize/", SendEmailPath: "/send-email/"})
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), meeting.SummaryRequest{Transcript: meeting.FromPaste("x")})
	require.ErrorIs(t, err, ErrUnreachable)

	err = c.SendEmail(context.Background(), meeting.Email{Subject: "s"})
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_WithSummarizePath(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"summary":"ok"}`))
	})

	alt := c.WithSummarizePath("/summarize/text/")
	_, err := alt.Summarize(context.Background(), meeting.SummaryRequest{Transcript: meeting.FromPaste("x")})
	require.NoError(t, err)
	_, err = c.Summarize(context.Background(), meeting.SummaryRequest{Transcript: meeting.FromPaste("x")})
	require.NoError(t, err)
	require.Equal(t, []string{"/summarize/text/", "/summarize/"}, paths)
}

func TestClient_SendEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/send-email/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "Meeting Summary", got["subject"])
		require.Equal(t, "<p>hi</p>", got["html"])
		require.Equal(t, []any{"a@x.com", "b@y.com"}, got["recipients"])
		_, _ = w.Write([]byte(`{}`))
	})

	err := c.SendEmail(context.Background(), meeting.Email{
		Subject:    "Meeting Summary",
		HTML:       "<p>hi</p>",
		Recipients: []string{"a@x.com", "b@y.com"},
	})
	require.NoError(t, err)
}

func TestClient_SendEmailRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"No email provider configured (set RESEND_API_KEY or SMTP_ vars)."}`))
	})

	err := c.SendEmail(context.Background(), meeting.Email{Recipients: []string{"a@x.com"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Contains(t, apiErr.Detail, "No email provider configured")
}

func TestClient_Relay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/summarize/text/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "focus on risks", r.FormValue("instruction"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "call.txt", header.Filename)
		_, _ = w.Write([]byte(`{"summary":"S","extra":[1,2]}`))
	})

	body, err := c.Relay(context.Background(), Upload{Name: "call.txt", Data: []byte("text")}, "focus on risks")
	require.NoError(t, err)
	require.JSONEq(t, `{"summary":"S","extra":[1,2]}`, string(body))
}

func TestClient_RelayBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Relay(context.Background(), Upload{Name: "call.txt", Data: []byte("text")}, "i")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}
