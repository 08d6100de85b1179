package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"      _            _     ", "#2dd4bf"},
	{"  ___| |_ __ _ ___| |__  ", "#22d3ee"},
	{" / __| __/ _` / __| '_ \\ ", "#38bdf8"},
	{" \\__ \\ || (_| \\__ \\ | | |", "#60a5fa"},
	{" |___/\\__\\__,_|___/_| |_|", "#818cf8"},
}

// PrintBanner writes the stash banner to w, colored when the terminal allows it.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
