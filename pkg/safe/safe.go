package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

// Run executes fn, converting panics into error logs with a trimmed stack.
func Run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", "safe.Run"),
				slog.String("stack", stackTrace(3)),
			)
		}
	}()

	fn()
}

// RunWithComponent tags the recovery log with the owning component name.
func RunWithComponent(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace(3)),
			)
		}
	}()

	fn()
}

func stackTrace(skipFrames int) string {
	lines := strings.Split(string(debug.Stack()), "\n")

	var formatted []string
	formatted = append(formatted, "Stack trace:")

	startIdx := skipFrames
	if startIdx < len(lines) {
		for i := startIdx; i < len(lines) && i < startIdx+20; i++ {
			line := strings.TrimSpace(lines[i])
			if line != "" {
				formatted = append(formatted, "  "+line)
			}
		}
		if len(lines) > startIdx+20 {
			formatted = append(formatted, "  ... (truncated)")
		}
	}

	return strings.Join(formatted, "\n")
}
