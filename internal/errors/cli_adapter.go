package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the luxd command line.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if le, ok := AsLux(err); ok {
		switch le.Category {
		case CategoryValidation:
			return 2 // Invalid usage
		case CategoryConfig:
			return 7 // Configuration error
		case CategoryFileSystem:
			return 11 // Disk error
		case CategoryDaemon, CategoryRuntime:
			return 12 // Runtime error
		case CategoryInternal:
			return 10 // Internal error
		default:
			return 1
		}
	}

	return 1
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if le, ok := AsLux(err); ok {
		if a.verbose {
			return le.Error()
		}
		switch le.Category {
		case CategoryConfig, CategoryValidation:
			return le.Message
		default:
			return fmt.Sprintf("%s: %s", le.Category, le.Message)
		}
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.verbose {
		a.logger.Error("command failed", "error", err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}
