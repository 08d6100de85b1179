package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/stash/pkg/handler"
	"github.com/charmbracelet/glamour"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"
)

var pretty = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Renderer turns session views into markdown, styled with glamour when the
// output is a terminal.
type Renderer struct {
	render func(string) (string, error)
}

// NewRenderer returns a Renderer for out. Non-terminal outputs get the raw
// markdown.
func NewRenderer(out io.Writer) *Renderer {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			return &Renderer{render: r.Render}
		}
	}
	return &Renderer{render: func(md string) (string, error) { return md, nil }}
}

// Sessions renders a table of sessions.
func (r *Renderer) Sessions(namespace string, sessions []handler.Session) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sessions in `%s`\n\n", namespace)
	if len(sessions) == 0 {
		b.WriteString("_No sessions stored._\n")
		return r.render(b.String())
	}
	b.WriteString("| ID | Last activity | Keys | Status |\n")
	b.WriteString("|----|---------------|------|--------|\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "| `%s` | %s | %d | %s |\n", s.ID, formatActivity(s.LastActivity), len(s.Attributes), status(s))
	}
	return r.render(b.String())
}

// Session renders one session with its attributes.
func (r *Renderer) Session(s handler.Session) (string, error) {
	body, err := pretty.MarshalIndent(s.Attributes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode attributes: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", s.ID)
	fmt.Fprintf(&b, "- **Last activity:** %s\n", formatActivity(s.LastActivity))
	fmt.Fprintf(&b, "- **Status:** %s\n\n", status(s))
	fmt.Fprintf(&b, "```json\n%s\n```\n", body)
	return r.render(b.String())
}

func formatActivity(unix int64) string {
	if unix == 0 {
		return "unknown"
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func status(s handler.Session) string {
	if s.Expired {
		return "expired"
	}
	return "live"
}
