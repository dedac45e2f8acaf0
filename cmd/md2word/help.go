package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2word <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert markdown to .docx, Word HTML or a clipboard payload")
	fmt.Fprintln(w, "  inspect     Summarize a .docx file")
	fmt.Fprintln(w, "  doctor      Check the diagram browser and environment")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2word help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2word convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to Word documents.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -f, --format <s>          Output format: docx, html, clipboard (default docx)")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (- = stdout)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (env: MD2WORD_CONFIG)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-file timeout, e.g. 30s (env: MD2WORD_TIMEOUT)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Style:")
	fmt.Fprintln(w, "      --preset <name>       Options preset: default, compact, academic")
	fmt.Fprintln(w, "      --math <s>            Math output: katex, latex, unicodemath, text")
	fmt.Fprintln(w, "      --theme <s>           Code theme: light, dark")
	fmt.Fprintln(w, "      --font <s>            Body font family")
	fmt.Fprintln(w, "      --no-merge            Keep 同上/同左 markers as text")
	fmt.Fprintln(w, "      --line-numbers        Number code block lines")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>           Document title (\"\" = first heading)")
	fmt.Fprintln(w, "      --author <s>          Document author")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams and clipboard:")
	fmt.Fprintln(w, "      --no-diagrams         Keep mermaid blocks as code")
	fmt.Fprintln(w, "      --strip-math          Remove math delimiters from clipboard text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// printInspectUsage prints usage for the inspect command.
func printInspectUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2word inspect <file.docx> [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print paragraph, table, image and equation counts of a .docx file.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2word doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome for mermaid diagrams, the environment and MD2WORD_CONFIG.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "inspect":
		printInspectUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2word version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2word help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
