// Package hints turns common failures into one actionable line, formatted as
// "\n  hint: <text>" so callers append it to the error message.
package hints

import "strings"

// Host describes what the browser hint needs to know about the machine.
type Host struct {
	Container  bool // docker, podman, kubernetes
	CI         bool
	NoSandbox  bool // ROD_NO_SANDBOX=1
	BrowserBin bool // ROD_BROWSER_BIN is set
}

// ForBrowserConnect suggests fixes for a browser that would not start while
// rendering diagrams. The --no-diagrams escape hatch is always offered.
func ForBrowserConnect(h Host) string {
	var parts []string
	if (h.Container || h.CI) && !h.NoSandbox {
		parts = append(parts, "set ROD_NO_SANDBOX=1 in containers and CI")
	}
	if !h.BrowserBin {
		parts = append(parts, "point ROD_BROWSER_BIN at a Chrome binary")
	}
	parts = append(parts, "or pass --no-diagrams to keep mermaid blocks as code")
	return format(strings.Join(parts, "; "))
}

// ForTimeout applies to context deadlines.
func ForTimeout() string {
	return format("for large documents or many diagrams, raise --timeout or MD2WORD_TIMEOUT")
}

// ForConfigNotFound suggests --config, or creating the per-user file when the
// search included the go-md2word config directory.
func ForConfigNotFound(searched []string) string {
	for _, p := range searched {
		if strings.Contains(strings.ReplaceAll(p, `\`, "/"), "go-md2word/") {
			return format("use --config /path/to/file.yaml or create " + p)
		}
	}
	return format("use --config /path/to/file.yaml")
}

func ForOutputDirectory() string {
	return format("check the parent directory exists and is writable")
}

// ForPresetNotFound lists the presets that do exist.
func ForPresetNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available presets: " + strings.Join(available, ", "))
}

// ForInvalidOptions points at the option groups users most often get wrong.
func ForInvalidOptions() string {
	return format("colors are #rgb or #rrggbb; math is katex, latex, unicodemath or text; theme is light or dark")
}

func format(hint string) string {
	return "\n  hint: " + hint
}
