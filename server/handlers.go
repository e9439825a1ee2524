package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"meeting_notes_summarizer/client"
	"meeting_notes_summarizer/meeting"
)

const (
	noticeError = "error"
	noticeInfo  = "info"

	msgBusy          = "A request is already in progress."
	msgUnreachable   = "Failed to call backend. Is it running?"
	msgNoRecipients  = "Enter recipient emails (comma separated)."
	msgEmailSent     = "Email sent!"
	msgEmailFailed   = "Failed to send email. Check backend logs."
	msgEditsSaved    = "Edits saved."
	msgNoSummary     = "Generate a summary first."
	msgWorkspaceGone = "This session has expired. Start again from the form."
)

type pageView struct {
	Form    Form
	WS      meeting.Snapshot
	Notice  *meeting.Notice
	Preview template.HTML
}

func (s *Server) handleBlankForm(f Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageView{
			Form: f,
			WS:   meeting.Snapshot{Form: f.Name, Instruction: f.Instruction},
		})
	}
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	form, ok := s.forms[chi.URLParam(r, "form")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, ok := s.store.get(r.FormValue("workspace_id"))
	if !ok || ws.Form != form.Name {
		ws = s.store.create(form.Name, form.Instruction)
	}

	transcript, err := readTranscript(r, form)
	if err != nil {
		s.logger.Warn("transcript upload unreadable", "workspace", ws.ID, "error", err)
		ws.SetNotice(noticeError, "Could not read the uploaded file: "+err.Error())
		s.redirect(w, r, ws)
		return
	}
	instruction := r.FormValue("instruction")

	err = ws.Generate(r.Context(), s.summarizers[form.Name], transcript, instruction)
	switch {
	case err == nil:
		s.logger.Info("summary generated", "workspace", ws.ID, "form", form.Name)
	case errors.Is(err, meeting.ErrMissingTranscript):
		ws.SetNotice(noticeError, form.MissingInput)
	case errors.Is(err, meeting.ErrBusy):
		ws.SetNotice(noticeError, msgBusy)
	default:
		s.logger.Error("summarize request failed", "workspace", ws.ID, "error", err)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			ws.SetNotice(noticeError, "Error: "+apiErr.Detail)
		} else {
			ws.SetNotice(noticeError, msgUnreachable)
		}
	}
	s.redirect(w, r, ws)
}

// readTranscript prefers an uploaded file over pasted text.
func readTranscript(r *http.Request, form Form) (meeting.Transcript, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		return meeting.FromFile(header.Filename, file)
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return meeting.Transcript{}, err
	}
	if !form.AllowPaste {
		return meeting.Transcript{}, nil
	}
	return meeting.FromPaste(normalizeNewlines(r.FormValue("transcript"))), nil
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, form, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := ws.Snapshot()
	view := pageView{Form: form, WS: snap, Notice: ws.TakeNotice()}
	if snap.HasResult && form.Reviewable {
		preview, err := meeting.RenderPreview(snap.Edited)
		if err != nil {
			s.logger.Warn("markdown preview failed", "workspace", ws.ID, "error", err)
		}
		view.Preview = preview
	}
	s.render(w, http.StatusOK, view)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	ws, form, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !form.Reviewable {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ws.Edit(normalizeNewlines(r.PostFormValue("edited"))); err != nil {
		ws.SetNotice(noticeError, msgNoSummary)
	} else {
		ws.SetNotice(noticeInfo, msgEditsSaved)
	}
	s.redirect(w, r, ws)
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	ws, form, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !form.Reviewable {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, present := r.PostForm["edited"]; present {
		if err := ws.Edit(normalizeNewlines(r.PostFormValue("edited"))); err != nil {
			ws.SetNotice(noticeError, msgNoSummary)
			s.redirect(w, r, ws)
			return
		}
	}

	recipients, err := ws.SendEmail(r.Context(), s.client, r.PostFormValue("recipients"))
	switch {
	case err == nil:
		s.logger.Info("summary emailed", "workspace", ws.ID, "recipients", len(recipients))
		ws.SetNotice(noticeInfo, msgEmailSent)
	case errors.Is(err, meeting.ErrNoRecipients):
		ws.SetNotice(noticeError, msgNoRecipients)
	case errors.Is(err, meeting.ErrNoSummary):
		ws.SetNotice(noticeError, msgNoSummary)
	case errors.Is(err, meeting.ErrBusy):
		ws.SetNotice(noticeError, msgBusy)
	default:
		s.logger.Error("send email failed", "workspace", ws.ID, "error", err)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			ws.SetNotice(noticeError, "Email error: "+apiErr.Detail)
		} else {
			ws.SetNotice(noticeError, msgEmailFailed)
		}
	}
	s.redirect(w, r, ws)
}

// --- Helpers ---

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*meeting.Workspace, Form, bool) {
	ws, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, msgWorkspaceGone, http.StatusNotFound)
		return nil, Form{}, false
	}
	form, ok := s.forms[ws.Form]
	if !ok {
		http.Error(w, msgWorkspaceGone, http.StatusNotFound)
		return nil, Form{}, false
	}
	return ws, form, true
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, ws *meeting.Workspace) {
	http.Redirect(w, r, "/w/"+ws.ID, http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, status int, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, "page.html", view); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// normalizeNewlines undoes the CRLF line endings browsers use for textarea
// submissions.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
