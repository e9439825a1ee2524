package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"meeting_notes_summarizer/generator"
	"meeting_notes_summarizer/httpx"
	"meeting_notes_summarizer/mailer"
	"meeting_notes_summarizer/meeting"
)

const (
	missingTranscriptDetail = "Provide a file or transcript text."
	noProviderDetail        = "No email provider configured (set RESEND_API_KEY or SMTP_ vars)."
)

// Summarizer is satisfied by *generator.Agent.
type Summarizer interface {
	Summarize(ctx context.Context, req generator.Request) (generator.Summary, error)
}

// Sender is satisfied by *mailer.Dispatcher.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) (mailer.Receipt, error)
}

// Server exposes the summarization and email API consumed by the front-end.
type Server struct {
	summarizer Summarizer
	sender     Sender
	logger     *slog.Logger
	maxUpload  int64
}

func New(summarizer Summarizer, sender Sender, logger *slog.Logger, maxUpload int64) (*Server, error) {
	if summarizer == nil {
		return nil, errors.New("summarizer required")
	}
	if sender == nil {
		return nil, errors.New("email sender required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Server{summarizer: summarizer, sender: sender, logger: logger, maxUpload: maxUpload}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpx.LogRequests(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Post("/summarize/", s.handleSummarize)
	r.Post("/summarize/text/", s.handleSummarize)
	r.Post("/send-email/", s.handleSendEmail)
	r.Get("/health", httpx.Health)
	return r
}

type detailResp struct {
	Detail string `json:"detail"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		httpx.WriteJSON(w, http.StatusBadRequest, detailResp{Detail: err.Error()})
		return
	}

	// An uploaded file counts as input even when empty.
	var transcript string
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, detailResp{Detail: err.Error()})
			return
		}
		transcript = meeting.DecodeText(data)
	} else if transcript = r.FormValue("transcript"); transcript == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, detailResp{Detail: missingTranscriptDetail})
		return
	}

	summary, err := s.summarizer.Summarize(r.Context(), generator.Request{
		Instruction: r.FormValue("instruction"),
		Transcript:  transcript,
	})
	if err != nil {
		s.logger.Error("summarize failed", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, detailResp{Detail: err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

type sendEmailReq struct {
	Subject    *string  `json:"subject"`
	HTML       *string  `json:"html"`
	Recipients []string `json:"recipients"`
}

type sendEmailResp struct {
	OK       bool            `json:"ok"`
	Provider string          `json:"provider"`
	Response json.RawMessage `json:"response,omitempty"`
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, detailResp{Detail: "invalid request body: " + err.Error()})
		return
	}
	msg, err := validateEmail(req)
	if err != nil {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, detailResp{Detail: err.Error()})
		return
	}

	receipt, err := s.sender.Send(r.Context(), msg)
	if errors.Is(err, mailer.ErrNoProvider) {
		httpx.WriteJSON(w, http.StatusInternalServerError, detailResp{Detail: noProviderDetail})
		return
	}
	if err != nil {
		s.logger.Error("send email failed", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, detailResp{Detail: err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sendEmailResp{OK: true, Provider: receipt.Provider, Response: receipt.Response})
}

func validateEmail(req sendEmailReq) (mailer.Message, error) {
	if req.Subject == nil {
		return mailer.Message{}, errors.New("subject is required")
	}
	if req.HTML == nil {
		return mailer.Message{}, errors.New("html is required")
	}
	if len(req.Recipients) == 0 {
		return mailer.Message{}, errors.New("recipients must not be empty")
	}
	to := make([]string, 0, len(req.Recipients))
	for _, raw := range req.Recipients {
		addr, err := mail.ParseAddress(raw)
		if err != nil || addr.Name != "" || !strings.EqualFold(addr.Address, strings.TrimSpace(raw)) {
			return mailer.Message{}, fmt.Errorf("invalid recipient address: %q", raw)
		}
		to = append(to, addr.Address)
	}
	return mailer.Message{Subject: *req.Subject, HTML: *req.HTML, To: to}, nil
}
