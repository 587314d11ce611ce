package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"scrum/interpreter-go/pkg/ast"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/interpreter"
	"scrum/interpreter-go/pkg/parser"
	"scrum/interpreter-go/pkg/runtime"
)

const (
	historyFile = ".scrum_history"
	promptMain  = "scrum> "
	promptCont  = "  ...> "
	replBanner  = "SCRUM interactive sprint. Type :quit to leave, :stories to list definitions."
)

func runREPL(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return impediment.ExitUsage
	}

	var prog *program
	if len(args) == 1 {
		var err error
		if prog, err = loadProgram(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return impediment.ExitUsage
		}
	} else {
		prog = &program{}
	}
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	interp := prog.newInterpreter(interpreter.WithLineReader(promptReader{prompter: ln}))
	if prog.entry != "" {
		if code := prog.execute(interp); code != impediment.ExitOK {
			return code
		}
	}

	fmt.Fprintln(os.Stdout, replBanner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			ln.Close()
			os.Exit(130)
		}
	}()

	ctx := context.Background()
	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(os.Stdout)
			return impediment.ExitOK
		}
		trimmed := strings.TrimSpace(src)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit" || trimmed == ":q":
			return impediment.ExitOK
		case trimmed == ":stories":
			defs := interp.Definitions()
			root := interp.RootScope()
			fmt.Fprintf(os.Stdout, "EPICs: %s\n", strings.Join(defs.Classes(root), ", "))
			fmt.Fprintf(os.Stdout, "USER STORIES: %s\n", strings.Join(defs.Functions(root), ", "))
			continue
		case strings.HasPrefix(trimmed, ":"):
			fmt.Fprintln(os.Stdout, "unknown command. Type :quit to exit.")
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if err := interp.Run(ctx, src); err != nil {
			reportError(err, "<repl>")
		}
	}
}

// prompter is the part of liner.State that ASK answers are read through.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// promptReader feeds ASK from the line editor so both share the terminal.
type promptReader struct {
	prompter prompter
}

func (r promptReader) ReadLine() (string, error) {
	return r.PromptLine("")
}

// PromptLine lets liner draw the ASK prompt. A Ctrl-C at the prompt reads
// as end of input.
func (r promptReader) PromptLine(prompt string) (string, error) {
	line, err := r.prompter.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return line, err
}

// readEntry prompts until the collected lines form a complete program or
// fail for a reason more input cannot fix. ok is false at end of input.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !needsMoreInput(b.String()) {
			return b.String(), true
		}
	}
}

// needsMoreInput parses src against throwaway definitions and reports
// whether it stopped inside an unterminated block.
func needsMoreInput(src string) bool {
	scratch := runtime.NewDefinitions()
	_, err := parser.ParseSource(src, scratch, scratch.NewScope(ast.NoScope))
	return parser.IsIncomplete(err)
}
