package meeting

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultInstruction seeds the instruction field of the full form.
const DefaultInstruction = "Summarize in bullet points for executives. Emphasize action items with owners and deadlines."

// Transcript is the meeting text to summarize. Upload and paste converge on
// Text; File keeps the raw upload so it can be forwarded as a file part.
type Transcript struct {
	Text     string
	FileName string
	File     []byte
}

// FromPaste builds a transcript from text typed or pasted by the user.
func FromPaste(text string) Transcript {
	return Transcript{Text: text}
}

// FromFile reads the whole upload and decodes it into the text buffer.
func FromFile(name string, r io.Reader) (Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript file: %w", err)
	}
	return Transcript{
		Text:     DecodeText(data),
		FileName: name,
		File:     data,
	}, nil
}

func (t Transcript) HasFile() bool {
	return t.FileName != ""
}

// Empty reports whether there is nothing to summarize.
func (t Transcript) Empty() bool {
	return !t.HasFile() && strings.TrimSpace(t.Text) == ""
}

// DecodeText returns data as UTF-8 text, reading it as ISO-8859-1 when it is
// not valid UTF-8.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(decoded)
}
