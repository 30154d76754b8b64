package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildHTML(t *testing.T) {
	a, err := Build("Clarity Canvas", `<h1>Hi</h1><script>x()</script>`, FormatHTML)
	require.NoError(t, err)
	require.Equal(t, "clarity-canvas-export.html", a.Filename)
	require.Equal(t, "text/html", a.MIMEType)
	require.Equal(t, "<h1>Hi</h1>", string(a.Body))
}

func TestBuildMarkdown(t *testing.T) {
	a, err := Build("My App!", `<h2>Plan</h2><p>ship it</p>`, FormatMarkdown)
	require.NoError(t, err)
	require.Equal(t, "my-app-export.md", a.Filename)
	require.Equal(t, "text/markdown", a.MIMEType)
	require.Contains(t, string(a.Body), "## Plan")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatHTML, "HTML": FormatHTML, "md": FormatMarkdown, "markdown": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	require.Error(t, err)
}

func TestSlug(t *testing.T) {
	require.Equal(t, "clarity-canvas", slug(""))
	require.Equal(t, "clarity-canvas", slug("!!!"))
	require.Equal(t, "a-b-c", slug("  A  b--C "))
}

func TestWriteFileReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a := Artifact{Filename: "x-export.html", Body: []byte("one")}
	path, err := WriteFile(dir, a)
	require.NoError(t, err)
	a.Body = []byte("two")
	_, err = WriteFile(dir, a)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(raw))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
