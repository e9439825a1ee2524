package meeting

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestTranscript_PasteAndFileConverge(t *testing.T) {
	for _, text := range []string{
		"Alice: we ship Friday.\nBob: I own the release notes.",
		"Zoë présente le budget — 10 €.",
		"single line",
	} {
		pasted := FromPaste(text)
		uploaded, err := FromFile("notes.txt", strings.NewReader(text))
		require.NoError(t, err)
		require.Equal(t, pasted.Text, uploaded.Text)
		require.True(t, uploaded.HasFile())
		require.False(t, pasted.HasFile())
	}
}

func TestTranscript_Empty(t *testing.T) {
	require.True(t, FromPaste("  \n\t").Empty())
	require.False(t, FromPaste("hello").Empty())

	emptyFile, err := FromFile("empty.txt", strings.NewReader(""))
	require.NoError(t, err)
	require.False(t, emptyFile.Empty())
}

func TestTranscript_ReadFailure(t *testing.T) {
	_, err := FromFile("broken.txt", failingReader{})
	require.ErrorContains(t, err, "disk gone")
}

func TestDecodeText_Latin1Fallback(t *testing.T) {
	require.Equal(t, "café", DecodeText([]byte{'c', 'a', 'f', 0xe9}))
	require.Equal(t, "café", DecodeText([]byte("café")))
}
