package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"meeting_notes_summarizer/meeting"
)

// ErrUnreachable wraps transport failures: the request never reached the
// backend or no response came back.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Options locate the backend endpoints.
type Options struct {
	BaseURL       string
	SummarizePath string
	ProxyPath     string
	SendEmailPath string
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Client talks to the summarization and email backend. It never retries.
type Client struct {
	baseURL       string
	summarizePath string
	proxyPath     string
	sendEmailPath string
	timeout       time.Duration
	http          *http.Client
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		summarizePath: opts.SummarizePath,
		proxyPath:     opts.ProxyPath,
		sendEmailPath: opts.SendEmailPath,
		timeout:       opts.Timeout,
		http:          httpClient,
	}, nil
}

// WithSummarizePath returns a copy of c that summarizes through path.
func (c *Client) WithSummarizePath(path string) *Client {
	cp := *c
	cp.summarizePath = path
	return &cp
}

// Summarize posts the transcript (as a file part when it came from an upload,
// as text otherwise) and returns the summary field of the answer.
func (c *Client) Summarize(ctx context.Context, req meeting.SummaryRequest) (string, error) {
	body, contentType, err := encodeForm(func(w *multipart.Writer) error {
		if req.Transcript.HasFile() {
			if err := writeFile(w, req.Transcript.FileName, req.Transcript.File); err != nil {
				return err
			}
		} else if err := w.WriteField("transcript", req.Transcript.Text); err != nil {
			return err
		}
		return w.WriteField("instruction", req.Instruction)
	})
	if err != nil {
		return "", err
	}

	data, err := c.post(ctx, c.summarizePath, contentType, body)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("decode summary response: invalid json")
	}
	return gjson.GetBytes(data, "summary").String(), nil
}

// SendEmail posts the email as JSON.
func (c *Client) SendEmail(ctx context.Context, email meeting.Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return err
	}
	_, err = c.post(ctx, c.sendEmailPath, "application/json", bytes.NewReader(payload))
	return err
}

// Upload is a file received by the proxy route.
type Upload struct {
	Name string
	Data []byte
}

// Relay forwards file and instruction to the proxy endpoint and returns the
// response body untouched. A non-2xx answer is an *APIError.
func (c *Client) Relay(ctx context.Context, file Upload, instruction string) ([]byte, error) {
	body, contentType, err := encodeForm(func(w *multipart.Writer) error {
		if err := writeFile(w, file.Name, file.Data); err != nil {
			return err
		}
		return w.WriteField("instruction", instruction)
	})
	if err != nil {
		return nil, err
	}

	return c.post(ctx, c.proxyPath, contentType, body)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	return data, nil
}

// errorDetail prefers the detail field of a JSON error body and falls back to
// the raw body.
func errorDetail(data []byte) string {
	if gjson.ValidBytes(data) {
		if detail := gjson.GetBytes(data, "detail"); detail.Exists() {
			return detail.String()
		}
	}
	return strings.TrimSpace(string(data))
}

func encodeForm(fill func(*multipart.Writer) error) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := fill(writer); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, name string, data []byte) error {
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
