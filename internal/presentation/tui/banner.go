package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Folio banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __       _ _       ", "#818cf8"},
		{"  / _| ___ | (_) ___  ", "#a78bfa"},
		{" | |_ / _ \\| | |/ _ \\ ", "#c084fc"},
		{" |  _| (_) | | | (_) |", "#e879f9"},
		{" |_|  \\___/|_|_|\\___/ ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
