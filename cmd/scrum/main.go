package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scrum/interpreter-go/pkg/api"
	"scrum/interpreter-go/pkg/driver"
	"scrum/interpreter-go/pkg/impediment"
	"scrum/interpreter-go/pkg/interpreter"
	"scrum/interpreter-go/pkg/preprocessor"
	"scrum/interpreter-go/pkg/runtime"
)

const cliToolVersion = "scrum 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return impediment.ExitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return impediment.ExitOK
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return impediment.ExitOK
	case "run":
		return runEntry(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "call":
		return runCall(args[1:])
	case "repl":
		return runREPL(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "unknown flag %s\n", args[0])
			printUsage()
			return impediment.ExitUsage
		}
		return runEntry(args)
	}
}

func runEntry(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return impediment.ExitUsage
	}
	var entry string
	if len(args) == 1 {
		entry = args[0]
	}
	prog, err := loadProgram(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return impediment.ExitUsage
	}
	return prog.execute(prog.newInterpreter())
}

func runValidate(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "scrum validate requires exactly one source file")
		return impediment.ExitUsage
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", args[0], err)
		return impediment.ExitUsage
	}
	interp := interpreter.New()
	if _, err := interp.Parse(string(source)); err != nil {
		reportError(err, args[0])
		return impediment.ExitCode(err)
	}
	defs := interp.Definitions()
	root := interp.RootScope()
	fmt.Fprintf(os.Stdout, "%s is ready: %d EPIC(s), %d USER STORY(ies), %d API(s)\n",
		args[0], len(defs.Classes(root)), len(defs.Functions(root)), len(defs.APIs(root)))
	return impediment.ExitOK
}

// callArgs is the parsed form of
// `call <file> <API> <path> [-X METHOD] [k=v ...] [--body text]`.
type callArgs struct {
	file    string
	apiName string
	req     api.Request
}

func parseCallArgs(args []string) (callArgs, error) {
	var out callArgs
	out.req.Query = make(map[string]string)
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-X" || arg == "--method":
			if i+1 >= len(args) {
				return out, fmt.Errorf("%s requires a method", arg)
			}
			i++
			out.req.Method = strings.ToUpper(args[i])
		case arg == "--body" || arg == "-d":
			if i+1 >= len(args) {
				return out, fmt.Errorf("%s requires a value", arg)
			}
			i++
			out.req.Body = args[i]
		case len(positional) == 3 && strings.Contains(arg, "="):
			key, value, _ := strings.Cut(arg, "=")
			out.req.Query[key] = value
		case strings.HasPrefix(arg, "-"):
			return out, fmt.Errorf("unknown flag %s", arg)
		default:
			positional = append(positional, arg)
		}
	}
	if len(positional) != 3 {
		return out, fmt.Errorf("scrum call requires <file> <API> <path>")
	}
	out.file, out.apiName, out.req.Path = positional[0], positional[1], positional[2]
	if out.req.Method == "" {
		out.req.Method = "GET"
	}
	return out, nil
}

func runCall(args []string) int {
	parsed, err := parseCallArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		printUsage()
		return impediment.ExitUsage
	}
	prog, err := loadProgram(parsed.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return impediment.ExitUsage
	}
	interp := prog.newInterpreter()
	if code := prog.execute(interp); code != impediment.ExitOK {
		return code
	}

	dispatcher := api.New(interp)
	if err := dispatcher.RegisterAll(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register APIs: %v\n", err)
		return impediment.ExitRuntime
	}
	resp, err := dispatcher.Invoke(context.Background(), parsed.apiName, parsed.req)
	if err != nil {
		if errors.Is(err, api.ErrAPINotFound) || errors.Is(err, api.ErrNoEndpoint) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return impediment.ExitRuntime
		}
		reportError(err, prog.entry)
		return impediment.ExitCode(err)
	}
	fmt.Fprintf(os.Stdout, "%d %s\n", resp.Status, runtime.Format(resp.Body))
	return impediment.ExitOK
}

func runDeps(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "scrum deps requires a subcommand (install)")
		return impediment.ExitUsage
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "scrum deps install does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return impediment.ExitUsage
		}
		return runDepsInstall()
	default:
		fmt.Fprintf(os.Stderr, "unknown deps subcommand %q\n", args[0])
		return impediment.ExitUsage
	}
}

func runDepsInstall() int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to determine working directory: %v\n", err)
		return impediment.ExitRuntime
	}
	manifestPath, err := driver.FindManifest(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to locate %s: %v\n", driver.ManifestFile, err)
		return impediment.ExitUsage
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read manifest: %v\n", err)
		return impediment.ExitUsage
	}
	cacheDir, err := driver.ResolveHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve SCRUM_HOME: %v\n", err)
		return impediment.ExitRuntime
	}

	fmt.Fprintf(os.Stdout, "Manifest: %s\n", manifest.Path)
	fmt.Fprintf(os.Stdout, "Project: %s\n", manifest.Name)
	fmt.Fprintf(os.Stdout, "Includes: %d (%d from git)\n", len(manifest.IncludeOrder), len(manifest.GitIncludes()))
	fmt.Fprintf(os.Stdout, "Cache directory: %s\n", cacheDir)

	installer := &driver.Installer{CacheDir: cacheDir}
	logs, err := installer.Install(context.Background(), manifest)
	for _, line := range logs {
		fmt.Fprintln(os.Stdout, line)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to install includes: %v\n", err)
		return impediment.ExitRuntime
	}
	fmt.Fprintln(os.Stdout, "Includes installed.")
	return impediment.ExitOK
}

// program is an entry file plus the manifest that governs it, if any.
type program struct {
	entry    string
	manifest *driver.Manifest
}

// loadProgram resolves the entry file. With no file the nearest manifest's
// entry is used; with a file, a manifest above it is picked up when present.
func loadProgram(entry string) (*program, error) {
	start := entry
	if start == "" {
		start = "."
	}
	manifestPath, err := driver.FindManifest(start)
	switch {
	case err == nil:
	case errors.Is(err, driver.ErrManifestNotFound):
		if entry == "" {
			return nil, fmt.Errorf("scrum run requires a source file (%s not found)", driver.ManifestFile)
		}
		return &program{entry: entry}, nil
	default:
		return nil, fmt.Errorf("failed to locate manifest: %w", err)
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if entry == "" {
		if entry, err = manifest.EntryPath(); err != nil {
			return nil, err
		}
	}
	return &program{entry: entry, manifest: manifest}, nil
}

func (p *program) newInterpreter(extra ...interpreter.Option) *interpreter.Interpreter {
	opts := []interpreter.Option{
		interpreter.WithOutput(os.Stdout),
		interpreter.WithInput(os.Stdin),
		interpreter.WithPreprocessor(preprocessor.FromConfig(llmConfig(p.manifest), os.Stderr)),
	}
	return interpreter.New(append(opts, extra...)...)
}

// execute runs the manifest's includes and then the entry file in interp,
// reporting the first failure.
func (p *program) execute(interp *interpreter.Interpreter) int {
	ctx := context.Background()
	if p.manifest != nil {
		cacheDir, err := driver.ResolveHome()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve SCRUM_HOME: %v\n", err)
			return impediment.ExitRuntime
		}
		sources, err := driver.IncludeSources(p.manifest, cacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return impediment.ExitRuntime
		}
		for _, src := range sources {
			if err := interp.Run(ctx, src.Text); err != nil {
				reportError(err, src.Path)
				return impediment.ExitCode(err)
			}
		}
	}
	source, err := os.ReadFile(p.entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", p.entry, err)
		return impediment.ExitUsage
	}
	if err := interp.Run(ctx, string(source)); err != nil {
		reportError(err, p.entry)
		return impediment.ExitCode(err)
	}
	return impediment.ExitOK
}

func llmConfig(manifest *driver.Manifest) preprocessor.Config {
	cfg := preprocessor.LoadConfig()
	if manifest != nil {
		cfg.Override(manifest.LLM.Provider, manifest.LLM.Chain, manifest.LLM.Model, manifest.LLM.Timeout)
	}
	return cfg
}

func reportError(err error, file string) {
	if file != "" {
		file = filepath.Base(file)
	}
	impediment.Report(os.Stderr, err, file, impediment.ReportOptions{Color: impediment.ColorFor(os.Stderr)})
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  scrum run [file.scrum]")
	fmt.Fprintln(os.Stderr, "  scrum <file.scrum>")
	fmt.Fprintln(os.Stderr, "  scrum validate <file.scrum>")
	fmt.Fprintln(os.Stderr, "  scrum call <file.scrum> <API> <path> [-X METHOD] [key=value ...] [--body text]")
	fmt.Fprintln(os.Stderr, "  scrum repl")
	fmt.Fprintln(os.Stderr, "  scrum deps install")
	fmt.Fprintln(os.Stderr, "  scrum --version")
}
