package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2word/internal/assets"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	Args        []string // fixed argument values
	FilePattern string   // glob for file arguments (e.g., "*.md")
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"format": {Values: []string{"docx", "html", "clipboard"}},
	"math":   {Values: []string{"katex", "latex", "unicodemath", "text"}},
	"theme":  {Values: []string{"light", "dark"}},
	"preset": {Values: assets.PresetNames()},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},

	// Directory flags
	"output": {IsDir: true},
}

// markdownGlob matches the Markdown inputs convert accepts.
const markdownGlob = "*.md,*.markdown,*.mdown,*.mkd"

// buildConvertFlagSet creates a FlagSet with all convert command flags.
func buildConvertFlagSet() *flag.FlagSet {
	return newConvertFlagSet(&convertFlags{})
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Convert flags are extracted from the actual FlagSet.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Convert markdown to Word documents",
			Flags:       extractFlagsFromFlagSet(buildConvertFlagSet()),
			FilePattern: markdownGlob,
		},
		{
			Name:        "inspect",
			Desc:        "Summarize a .docx file",
			Flags:       []flagDef{{Long: "json", Type: flagBool, Desc: "print the report as JSON"}},
			FilePattern: "*.docx",
		},
		{
			Name:  "doctor",
			Desc:  "Check the diagram browser and environment",
			Flags: []flagDef{{Long: "json", Type: flagBool, Desc: "print the results as JSON"}},
		},
		{
			Name: "completion",
			Desc: "Generate shell completion script",
			Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish)},
		},
		{
			Name: "version",
			Desc: "Show version information",
		},
		{
			Name: "help",
			Desc: "Show help for a command",
			Args: []string{"convert", "inspect", "doctor", "completion", "version"},
		},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = generateBash(getCommands())
	case ShellZsh:
		script = generateZsh(getCommands())
	case ShellFish:
		script = generateFish(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// globExtensions turns "*.yaml,*.yml" into ["yaml", "yml"].
func globExtensions(glob string) []string {
	var exts []string
	for part := range strings.SplitSeq(glob, ",") {
		if ext := strings.TrimPrefix(strings.TrimSpace(part), "*."); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// flagNames returns "--long" and "-s" for a flag.
func flagNames(f flagDef) []string {
	names := []string{"--" + f.Long}
	if f.Short != "" {
		names = append(names, "-"+f.Short)
	}
	return names
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func bashFileFilter(glob string) string {
	exts := globExtensions(glob)
	if len(exts) == 1 {
		return fmt.Sprintf("compgen -f -X '!*.%s' -- \"${cur}\"", exts[0])
	}
	return fmt.Sprintf("compgen -f -X '!*.@(%s)' -- \"${cur}\"", strings.Join(exts, "|"))
}

func generateBash(cmds []commandDef) string {
	var b strings.Builder
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}

	b.WriteString("# bash completion for md2word\n")
	b.WriteString("_md2word() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(names, " "))
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${cmd}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)

		var valueCases []string
		var all []string
		for _, f := range c.Flags {
			all = append(all, flagNames(f)...)
			pattern := strings.Join(flagNames(f), "|")
			switch f.Type {
			case flagEnum:
				valueCases = append(valueCases, fmt.Sprintf("        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0 ;;\n", pattern, strings.Join(f.Values, " ")))
			case flagFile:
				valueCases = append(valueCases, fmt.Sprintf("        %s)\n            COMPREPLY=( $(%s) $(compgen -d -- \"${cur}\") )\n            return 0 ;;\n", pattern, bashFileFilter(f.FileGlob)))
			case flagDir:
				valueCases = append(valueCases, fmt.Sprintf("        %s)\n            COMPREPLY=( $(compgen -d -- \"${cur}\") )\n            return 0 ;;\n", pattern))
			case flagString, flagInt:
				valueCases = append(valueCases, fmt.Sprintf("        %s)\n            return 0 ;;\n", pattern))
			}
		}
		if len(valueCases) > 0 {
			b.WriteString("        case \"${prev}\" in\n")
			for _, vc := range valueCases {
				b.WriteString(vc)
			}
			b.WriteString("        esac\n")
		}
		if len(all) > 0 {
			b.WriteString("        if [[ \"${cur}\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(all, " "))
			b.WriteString("            return 0\n")
			b.WriteString("        fi\n")
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(c.Args, " "))
		case c.FilePattern != "":
			fmt.Fprintf(&b, "        COMPREPLY=( $(%s) $(compgen -d -- \"${cur}\") )\n", bashFileFilter(c.FilePattern))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _md2word md2word\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

var zshEscaper = strings.NewReplacer(`'`, `'\''`, `[`, `\[`, `]`, `\]`, `:`, `\:`)

func zshFlagSpec(f flagDef) string {
	desc := zshEscaper.Replace(f.Desc)

	var action string
	switch f.Type {
	case flagBool:
		action = ""
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(":file:_files -g \"*.(%s)\"", strings.Join(globExtensions(f.FileGlob), "|"))
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = fmt.Sprintf(":%s: ", f.Long)
	}

	if f.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func generateZsh(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("#compdef md2word\n\n")
	b.WriteString("_md2word() {\n")
	b.WriteString("    local curcontext=\"$curcontext\" state line\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscaper.Replace(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    _arguments -C '1: :->cmds' '*:: :->args'\n\n")
	b.WriteString("    case $state in\n")
	b.WriteString("    cmds)\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        ;;\n")
	b.WriteString("    args)\n")
	b.WriteString("        case $line[1] in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		specs := make([]string, 0, len(c.Flags)+1)
		for _, f := range c.Flags {
			specs = append(specs, zshFlagSpec(f))
		}
		switch {
		case len(c.Args) > 0:
			specs = append(specs, fmt.Sprintf("'1:argument:(%s)'", strings.Join(c.Args, " ")))
		case c.FilePattern != "":
			specs = append(specs, fmt.Sprintf("'*:input:_files -g \"*.(%s)\"'", strings.Join(globExtensions(c.FilePattern), "|")))
		}
		if len(specs) > 0 {
			fmt.Fprintf(&b, "            _arguments \\\n                %s\n", strings.Join(specs, " \\\n                "))
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("        esac\n")
	b.WriteString("        ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _md2word md2word\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

var fishEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func generateFish(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# fish completion for md2word\n")
	b.WriteString("complete -c md2word -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c md2word -n '__fish_use_subcommand' -a %s -d '%s'\n", c.Name, fishEscaper.Replace(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c md2word %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagEnum:
				line += fmt.Sprintf(" -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagString, flagInt:
				line += " -x"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscaper.Replace(f.Desc))
			b.WriteString(line + "\n")
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "complete -c md2word %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		case c.FilePattern != "":
			fmt.Fprintf(&b, "complete -c md2word %s -F\n", cond)
		}
	}
	return b.String()
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2word completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(md2word completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(md2word completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    md2word completion fish > ~/.config/fish/completions/md2word.fish")
}
