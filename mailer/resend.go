package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendURL = "https://api.resend.com"

// Resend delivers through the Resend HTTP API.
type Resend struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func NewResend(apiKey, from, baseURL string, timeout time.Duration) (*Resend, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key missing")
	}
	if from == "" {
		return nil, errors.New("resend sender address missing")
	}
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resend{
		apiKey:  apiKey,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (r *Resend) Name() string { return "resend" }

func (r *Resend) Send(ctx context.Context, msg Message) (Receipt, error) {
	body, err := json.Marshal(resendPayload{
		From:    r.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return Receipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("resend: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if !json.Valid(data) {
		return Receipt{}, errors.New("resend: invalid json response")
	}
	return Receipt{Provider: r.Name(), Response: data}, nil
}
