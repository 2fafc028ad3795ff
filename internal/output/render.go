// internal/output/render.go
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrapWidth = 100

// terminalWidth returns the width of w when it is a terminal. ok is false for
// pipes, files and buffers.
func terminalWidth(w io.Writer) (width int, ok bool) {
	f, isFile := w.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = defaultWrapWidth
	}
	return width, true
}

// WriteMarkdown writes md to w, styling it with Glamour when w is a terminal.
// Non-terminal writers receive the raw Markdown so output can be piped.
func WriteMarkdown(w io.Writer, md []byte) error {
	width, ok := terminalWidth(w)
	if !ok {
		_, err := w.Write(md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating glamour renderer: %w", err)
	}
	out, err := r.RenderBytes(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// Write formats r with f and writes the result to w. Markdown output goes
// through WriteMarkdown.
func Write(w io.Writer, f Formatter, r *Report) error {
	out, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if _, isMarkdown := f.(*MarkdownFormatter); isMarkdown {
		return WriteMarkdown(w, out)
	}
	_, err = w.Write(out)
	return err
}
