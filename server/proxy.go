package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"meeting_notes_summarizer/client"
	"meeting_notes_summarizer/httpx"
)

type errorResp struct {
	Error string `json:"error"`
}

// handleProxy relays one multipart request (file + instruction) to the
// backend and returns its JSON as is. It never retries.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.proxyError(w, err)
		return
	}

	file, header, fileErr := r.FormFile("file")
	instruction := r.FormValue("instruction")
	if fileErr != nil || instruction == "" {
		if file != nil {
			file.Close()
		}
		httpx.WriteJSON(w, http.StatusBadRequest, errorResp{Error: "Missing file or instruction"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.proxyError(w, err)
		return
	}

	body, err := s.client.Relay(r.Context(), client.Upload{Name: header.Filename, Data: data}, instruction)
	if err != nil {
		s.proxyError(w, err)
		return
	}
	if !json.Valid(body) {
		s.proxyError(w, errInvalidBackendJSON)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

var errInvalidBackendJSON = errors.New("backend returned invalid JSON")

func (s *Server) proxyError(w http.ResponseWriter, err error) {
	s.logger.Error("summarize proxy failed", "error", err)
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("Backend error: %d", apiErr.Status)
	}
	httpx.WriteJSON(w, http.StatusInternalServerError, errorResp{Error: msg})
}
