package cli

import (
	"fmt"
	"log/slog"

	"github.com/easelab/easel/internal/logging"
)

// NewLogger configures the application logger for the given level
// string. It writes to Stderr so stdout stays clean for command
// output.
func NewLogger(level string) *slog.Logger {
	return logging.New(logging.ParseLevel(level))
}

// SystemMessage prints a standardized system message to stdout.
func SystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}
