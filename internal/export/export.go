// Package export builds the downloadable snapshot of a canvas.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/claritycanvas/internal/atomicfile"
	"github.com/jask/claritycanvas/internal/render"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "", "html", "md" and "markdown".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Artifact is a file ready to hand to the user.
type Artifact struct {
	Filename string
	MIMEType string
	Body     []byte
}

// Build renders layout content as an artifact named <app-name>-export.<ext>.
// The HTML body is the sanitized layout, the same markup the canvas shows.
func Build(appName, content string, f Format) (Artifact, error) {
	base := slug(appName)
	switch f {
	case FormatHTML, "":
		return Artifact{
			Filename: base + "-export.html",
			MIMEType: "text/html",
			Body:     []byte(render.Sanitize(content)),
		}, nil
	case FormatMarkdown:
		md, err := render.Markdown(content)
		if err != nil {
			return Artifact{}, fmt.Errorf("markdown export: %w", err)
		}
		return Artifact{
			Filename: base + "-export.md",
			MIMEType: "text/markdown",
			Body:     []byte(md),
		}, nil
	}
	return Artifact{}, fmt.Errorf("unknown export format %q", f)
}

// WriteFile stores a under dir, replacing any earlier export of the same name.
func WriteFile(dir string, a Artifact) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := atomicfile.Write(path, a.Body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "clarity-canvas"
	}
	var b strings.Builder
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	if out := strings.TrimSuffix(b.String(), "-"); out != "" {
		return out
	}
	return "clarity-canvas"
}
