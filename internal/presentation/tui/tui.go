// Package tui holds the terminal presentation pieces of the CLI: the
// startup banner, the glamour markdown renderer and the interactivity
// probe that decides between rendered and raw output.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// PrintBanner outputs the ASCII art banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	lines := []string{
		`                       _ `,
		`    ___  __ _ ___  ___| |`,
		"   / _ \\/ _` / __|/ _ \\ |",
		`  |  __/ (_| \__ \  __/ |`,
		`   \___|\__,_|___/\___|_|`,
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(termenv.String(line).Foreground(p.Color(colors[i%len(colors)])))
	}
	fmt.Println()
	fmt.Printf("  v%s\n\n", strings.TrimSpace(version))
}

// NewRenderer returns a function that renders markdown with glamour,
// matching the terminal's light or dark background. When no renderer
// can be built the markdown passes through untouched.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsInteractive reports whether stdout is a terminal. Piped output
// gets raw markdown instead of rendered frames.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
