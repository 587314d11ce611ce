package impediment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
)

const boxWidth = 64

// ReportOptions controls rendering of impediment reports.
type ReportOptions struct {
	Color bool
}

// ColorFor reports whether reports written to f should use ANSI colour.
func ColorFor(f *os.File) bool {
	if f == nil || env.Has("NO_COLOR") {
		return false
	}
	return isTerminal(f.Fd())
}

// Report writes a boxed, human-readable impediment report for err.
// Errors that are not language errors are written as a single line.
func Report(w io.Writer, err error, file string, opts ReportOptions) {
	if err == nil {
		return
	}
	if file == "" {
		file = "<unknown>"
	}
	var b strings.Builder

	var runtimeErr *RuntimeError
	var syntaxErr *SyntaxError
	var tokenErr *TokenError
	switch {
	case errors.As(err, &runtimeErr):
		writeHeader(&b, "SCRUM IMPEDIMENT - USER STORY COULD NOT BE COMPLETED", opts)
		if runtimeErr.Epic != "" {
			fmt.Fprintf(&b, "EPIC       %q\n", runtimeErr.Epic)
		}
		if runtimeErr.Story != "" {
			fmt.Fprintf(&b, "USER STORY %q\n", runtimeErr.Story)
		}
		b.WriteString(location(file, runtimeErr.Line))
		b.WriteString("DURING EXECUTION OF THIS STORY I TRIED TO:\n")
		writeIndented(&b, orDefault(runtimeErr.Snippet, "<code not available>"))
		b.WriteString("BUT I ENCOUNTERED A BLOCKER:\n")
		writeIndented(&b, orDefault(runtimeErr.Message, "An unexpected impediment occurred."))
		writeCode(&b, runtimeErr.Code())
		if runtimeErr.Err != nil {
			fmt.Fprintf(&b, "ROOT CAUSE: %v\n", runtimeErr.Err)
		}
	case errors.As(err, &syntaxErr):
		code := syntaxErr.Code
		if code == "" {
			code = CodeSyntaxUnknown
		}
		writeRefinement(&b, file, syntaxErr.Line, syntaxErr.Snippet, orDefault(syntaxErr.Message, "Syntax error."), code, opts)
	case errors.As(err, &tokenErr):
		writeRefinement(&b, file, tokenErr.Line, tokenErr.Snippet, orDefault(tokenErr.Message, "Unrecognized token."), tokenErr.Code(), opts)
	default:
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	b.WriteString("\n")
	io.WriteString(w, b.String())
}

func writeRefinement(b *strings.Builder, file string, line int, snippet, because string, code Code, opts ReportOptions) {
	writeHeader(b, "SCRUM IMPEDIMENT - BACKLOG ITEM NOT READY", opts)
	b.WriteString(location(file, line))
	b.WriteString("DURING BACKLOG REFINEMENT I COULD NOT UNDERSTAND THIS PART:\n")
	writeIndented(b, orDefault(snippet, "<code not available>"))
	b.WriteString("BECAUSE:\n")
	writeIndented(b, because)
	writeCode(b, code)
}

func writeCode(b *strings.Builder, code Code) {
	fmt.Fprintf(b, "IMPEDIMENT CODE: %s (%s)\n", code, code.Description())
}

func writeHeader(b *strings.Builder, title string, opts ReportOptions) {
	bar := strings.Repeat("═", boxWidth)
	pad := boxWidth - 2 - len(title)
	if pad < 0 {
		pad = 0
	}
	if opts.Color {
		b.WriteString("\x1b[1;31m")
	}
	b.WriteString("\n╔" + bar + "╗\n")
	b.WriteString("║  " + title + strings.Repeat(" ", pad) + "║\n")
	b.WriteString("╚" + bar + "╝\n")
	if opts.Color {
		b.WriteString("\x1b[0m")
	}
	b.WriteString("\n")
}

func location(file string, line int) string {
	loc := "FILE " + file
	if line > 0 {
		loc += fmt.Sprintf(", LINE %d", line)
	}
	return loc + "\n\n"
}

func writeIndented(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
