// Package cellmatch recognizes the comment markers that delimit cells in a
// plain source file (for example "#%%" or "# In[3]").
package cellmatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

const (
	// DefaultCodePattern matches lines that open a code cell.
	DefaultCodePattern = `^(#\s*%%|#\s*\<codecell\>|#\s*In\[\d*?\]|#\s*In\[ \])`
	// DefaultMarkdownPattern matches lines that open a markdown cell.
	DefaultMarkdownPattern = `^(#\s*%%\s*\[markdown\]|#\s*\<markdowncell\>)`
)

// Matcher classifies marker lines.
type Matcher struct {
	code     *regexp.Regexp
	markdown *regexp.Regexp
}

// New compiles a matcher. Empty patterns fall back to the defaults.
func New(codePattern, markdownPattern string) (*Matcher, error) {
	if codePattern == "" {
		codePattern = DefaultCodePattern
	}
	if markdownPattern == "" {
		markdownPattern = DefaultMarkdownPattern
	}
	code, err := regexp.Compile(codePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid code cell pattern: %w", err)
	}
	markdown, err := regexp.Compile(markdownPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid markdown cell pattern: %w", err)
	}
	return &Matcher{code: code, markdown: markdown}, nil
}

// Default returns a matcher for the default patterns.
func Default() *Matcher {
	return &Matcher{
		code:     regexp.MustCompile(DefaultCodePattern),
		markdown: regexp.MustCompile(DefaultMarkdownPattern),
	}
}

// IsMarkdown reports whether line opens a markdown cell.
func (m *Matcher) IsMarkdown(line string) bool {
	return m.markdown.MatchString(strings.TrimSpace(line))
}

// IsCode reports whether line opens a code cell. A markdown marker is also
// a code marker under the default patterns, so it is excluded here.
func (m *Matcher) IsCode(line string) bool {
	return m.code.MatchString(strings.TrimSpace(line)) && !m.IsMarkdown(line)
}

// IsCell reports whether line is any cell marker.
func (m *Matcher) IsCell(line string) bool {
	return m.IsCode(line) || m.IsMarkdown(line)
}

// CellType returns the kind of cell a marker line opens.
func (m *Matcher) CellType(line string) domain.CellType {
	if m.IsMarkdown(line) {
		return domain.CellTypeMarkdown
	}
	return domain.CellTypeCode
}

// StripFirstMarker removes the first line of code when it is a marker.
// Markers further down are kept.
func (m *Matcher) StripFirstMarker(code string) string {
	lines := strings.SplitAfter(code, "\n")
	if len(lines) > 0 && m.IsCell(lines[0]) {
		return strings.Join(lines[1:], "")
	}
	return code
}

// SplitCells turns a script into cells, opening a new cell at every marker.
// Text before the first marker becomes a code cell of its own when it is
// not blank. Marker lines are dropped and markdown comment prefixes removed.
func (m *Matcher) SplitCells(script string, newID func() string) []domain.Cell {
	var (
		cells   []domain.Cell
		current []string
		kind    = domain.CellTypeCode
		start   = 0
		opened  = false
	)

	emit := func() {
		if !opened && strings.TrimSpace(strings.Join(current, "\n")) == "" {
			return
		}
		cells = append(cells, m.buildCell(newID(), kind, start, current))
	}

	lines := strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if m.IsCell(line) {
			emit()
			current = nil
			kind = m.CellType(line)
			start = i + 1
			opened = true
			continue
		}
		current = append(current, line)
	}
	emit()
	return cells
}

func (m *Matcher) buildCell(id string, kind domain.CellType, line int, lines []string) domain.Cell {
	// Trailing blank lines belong to the gap between cells.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if kind == domain.CellTypeMarkdown {
		for i, l := range lines {
			l = strings.TrimPrefix(l, "#")
			lines[i] = strings.TrimPrefix(l, " ")
		}
	}

	source := make(domain.Source, len(lines))
	for i, l := range lines {
		if i < len(lines)-1 {
			l += "\n"
		}
		source[i] = l
	}

	cell := domain.NewEmptyCell(id)
	cell.File = ""
	cell.Line = line
	cell.State = domain.CellStateFinished
	cell.Data.CellType = kind
	cell.Data.Source = source
	if kind == domain.CellTypeMarkdown {
		cell.Data.Outputs = nil
	}
	return cell
}
