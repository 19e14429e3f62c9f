package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	apperrors "gitnotifier/pkg/errors"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Output receives everything the Show* helpers print.
	Output io.Writer = os.Stdout

	// Color functions
	ColorSuccess = colorFunc(ansi.Green)
	ColorError   = colorFunc(ansi.Red)
	ColorWarning = colorFunc(ansi.Yellow)
	ColorInfo    = colorFunc(ansi.Cyan)
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	padding := (width - len(title) - 2) / 2
	if padding < 0 {
		padding = 0
	}
	right := width - 2 - padding - len(title)
	if right < 0 {
		right = 0
	}

	fmt.Fprintln(Output, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(Output, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", right),
	)
	fmt.Fprintln(Output, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays a formatted error message
func ShowError(err error) {
	fmt.Fprintf(Output, "\n%s\n", ColorError("ERROR:"))

	message := err.Error()
	for i, line := range strings.Split(message, "\n") {
		if i == 0 {
			fmt.Fprintf(Output, "  %s\n", line)
		} else {
			fmt.Fprintf(Output, "  %s\n", ColorDim(line))
		}
	}

	// AppErrors already print their own suggestions
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
		return
	}

	if suggestion := getSuggestion(message); suggestion != "" {
		fmt.Fprintf(Output, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorInfo("INFO:"), message)
}

// PrintKeyValue prints a key-value pair in a formatted way
func PrintKeyValue(key, value string) {
	fmt.Fprintf(Output, "  %-20s %s\n", ColorDim(key+":"), value)
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "authentication required"):
		return "Store a token with 'gitnotifier auth set <host>' or export GIT_TOKEN"
	case strings.Contains(lower, "could not resolve host"),
		strings.Contains(lower, "connection refused"):
		return "Verify the repository URL and your network connectivity"
	case strings.Contains(lower, "permission denied"):
		return "Check your SSH key and that it is registered with the remote"
	case strings.Contains(lower, "remote branch") && strings.Contains(lower, "not found"):
		return "Verify the branch name in the repository descriptor"
	case strings.Contains(lower, "org.freedesktop.dbus"):
		return "No desktop notification daemon is reachable; try the console transport"
	default:
		return ""
	}
}
