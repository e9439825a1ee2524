package meeting

import (
	"errors"
	"html"
	"strings"
)

// EmailSubject is the fixed subject of every summary email.
const EmailSubject = "Meeting Summary"

// ErrNoRecipients is returned when the recipient input holds no addresses.
var ErrNoRecipients = errors.New("no recipients")

// Email is the payload of the send-email endpoint.
type Email struct {
	Subject    string   `json:"subject"`
	HTML       string   `json:"html"`
	Recipients []string `json:"recipients"`
}

// ParseRecipients splits a comma separated list, trimming entries and dropping
// empty ones. Addresses are not validated here.
func ParseRecipients(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// EmailHTML turns every line of text into one escaped paragraph.
func EmailHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// BuildEmail prepares the summary email for the parsed recipient list.
func BuildEmail(summary, recipientInput string) (Email, error) {
	recipients := ParseRecipients(recipientInput)
	if len(recipients) == 0 {
		return Email{}, ErrNoRecipients
	}
	return Email{
		Subject:    EmailSubject,
		HTML:       EmailHTML(summary),
		Recipients: recipients,
	}, nil
}
