package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 100

// TerminalWidth returns the width of stdout, or DefaultWidth.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Renderer renders document snapshots for the terminal.
type Renderer struct {
	render func(string) (string, error)
}

// NewRenderer creates a renderer wrapping at width. An empty style picks
// light or dark from the terminal background.
func NewRenderer(width int, style string) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return &Renderer{render: r.Render}, nil
}

// Render returns the terminal rendering of state.
func (r *Renderer) Render(state domain.State) (string, error) {
	return r.render(Markdown(state))
}

// Markdown turns a document snapshot into markdown: one section per cell
// with its status, source and text outputs.
func Markdown(state domain.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Document (%d cells, execution count %d)\n\n", len(state.Cells), state.CurrentExecutionCount)
	if len(state.Cells) == 0 {
		sb.WriteString("_empty_\n")
		return sb.String()
	}

	for i, vm := range state.Cells {
		fmt.Fprintf(&sb, "## %s\n\n", cellTitle(i, vm))
		source := vm.Cell.Data.Source.String()
		if vm.InputBlockText != "" && vm.InputBlockText != source {
			source = vm.InputBlockText
		}
		if vm.Cell.IsCode() {
			sb.WriteString("```python\n")
			sb.WriteString(strings.TrimRight(source, "\n"))
			sb.WriteString("\n```\n\n")
			for _, out := range vm.Cell.Data.Outputs {
				if text := outputText(out); text != "" {
					sb.WriteString("```\n")
					sb.WriteString(strings.TrimRight(text, "\n"))
					sb.WriteString("\n```\n\n")
				}
			}
		} else {
			sb.WriteString(source)
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func cellTitle(i int, vm domain.CellViewModel) string {
	var marks []string
	if vm.Focused {
		marks = append(marks, "focused")
	} else if vm.Selected {
		marks = append(marks, "selected")
	}
	title := fmt.Sprintf("%d. %s", i+1, vm.Cell.Data.CellType)
	if vm.Cell.IsCode() {
		count := " "
		if ec := vm.Cell.Data.ExecutionCount; ec != nil {
			count = fmt.Sprint(*ec)
		}
		title += fmt.Sprintf(" [%s] %s", count, vm.Cell.State)
	}
	if len(marks) > 0 {
		title += " (" + strings.Join(marks, ", ") + ")"
	}
	return title
}

// outputText extracts printable text from an nbformat output.
func outputText(out map[string]any) string {
	if text, ok := out["text"]; ok {
		return joinText(text)
	}
	if data, ok := out["data"].(map[string]any); ok {
		if text, ok := data["text/plain"]; ok {
			return joinText(text)
		}
	}
	if name, ok := out["ename"].(string); ok {
		value, _ := out["evalue"].(string)
		return name + ": " + value
	}
	return ""
}

func joinText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var sb strings.Builder
		for _, part := range t {
			if s, ok := part.(string); ok {
				sb.WriteString(s)
			}
		}
		return sb.String()
	case []string:
		return strings.Join(t, "")
	}
	return ""
}
