package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-md2word/internal/assets"
	"github.com/alnah/go-md2word/internal/config"
	"github.com/alnah/go-md2word/internal/fileutil"
)

// Finding severities.
const (
	levelOK    = "ok"
	levelWarn  = "warn"
	levelError = "error"
)

// Report sections, printed in this order.
const (
	sectionBrowser = "Diagrams (Chrome/Chromium)"
	sectionRuntime = "Runtime"
	sectionConfig  = "Configuration"
)

var doctorSections = []string{sectionBrowser, sectionRuntime, sectionConfig}

// ciVars are set by the CI systems doctor recognizes.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// finding is one line of the doctor report.
type finding struct {
	Section string `json:"section"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// doctorReport is what doctor prints, as text or JSON.
type doctorReport struct {
	Status   string       `json:"status"` // "ready", "warnings", "errors"
	Browser  browserInfo  `json:"browser"`
	Platform platformInfo `json:"platform"`
	Config   configInfo   `json:"config"`
	Findings []finding    `json:"findings"`
}

type browserInfo struct {
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type platformInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     string `json:"container,omitempty"` // detection signal, empty outside containers
	CI            bool   `json:"ci"`
	NoSandbox     bool   `json:"rod_no_sandbox"`
	TempWritable  bool   `json:"temp_writable"`
	BrowserBinEnv string `json:"rod_browser_bin,omitempty"`
}

// configInfo reports the config named by MD2WORD_CONFIG and the presets.
type configInfo struct {
	Name    string   `json:"name,omitempty"`
	Loaded  bool     `json:"loaded"`
	Presets []string `json:"presets"`
}

func (r *doctorReport) add(section, level, format string, args ...any) {
	r.Findings = append(r.Findings, finding{Section: section, Level: level, Message: fmt.Sprintf(format, args...)})
}

// doctorCheck inspects one aspect of the host and records findings.
type doctorCheck func(r *doctorReport, env *Environment)

// doctorChecks run in order; checkBrowser reads the sandbox setting that
// checkRuntime records.
var doctorChecks = []doctorCheck{checkRuntime, checkBrowser, checkConfig}

// runDoctorCmd executes the doctor command and returns an exit code: 0 when
// conversions can run (warnings included), 1 otherwise.
func runDoctorCmd(args []string, env *Environment) int {
	asJSON := false
	for _, arg := range args {
		switch arg {
		case "--json":
			asJSON = true
		case "-h", "--help":
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
	}

	report := runDoctor(env, doctorChecks...)
	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDoctorReport(env.Stdout, report)
	}

	if report.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor runs checks and derives the overall status from the worst finding.
func runDoctor(env *Environment, checks ...doctorCheck) *doctorReport {
	r := &doctorReport{
		Platform: platformInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
		Findings: []finding{},
	}
	for _, check := range checks {
		check(r, env)
	}

	r.Status = "ready"
	for _, f := range r.Findings {
		switch f.Level {
		case levelError:
			r.Status = "errors"
		case levelWarn:
			if r.Status == "ready" {
				r.Status = "warnings"
			}
		}
	}
	return r
}

// checkRuntime records platform, container and CI signals and whether the
// temp directory used for diagram pages is writable.
func checkRuntime(r *doctorReport, env *Environment) {
	p := &r.Platform
	p.NoSandbox = env.Getenv("ROD_NO_SANDBOX") == "1"
	p.BrowserBinEnv = env.Getenv(config.EnvBrowserBin)
	p.Container = containerSignal(env.Getenv)
	for _, v := range ciVars {
		if env.Getenv(v) != "" {
			p.CI = true
			break
		}
	}

	r.add(sectionRuntime, levelOK, "Platform: %s/%s", p.OS, p.Arch)
	if p.Container != "" {
		r.add(sectionRuntime, levelOK, "Container: detected (%s)", p.Container)
	}
	if p.CI {
		r.add(sectionRuntime, levelOK, "CI: detected")
	}
	if (p.Container != "" || p.CI) && !p.NoSandbox {
		r.add(sectionRuntime, levelWarn, "Container/CI detected but ROD_NO_SANDBOX is not 1; Chrome may refuse to start")
	}

	probe := filepath.Join(os.TempDir(), "md2word-doctor-test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		r.add(sectionRuntime, levelError, "Temp directory not writable: %s", os.TempDir())
		return
	}
	_ = os.Remove(probe)
	p.TempWritable = true
	r.add(sectionRuntime, levelOK, "Temp directory: writable")
}

// containerSignal names the first container marker found, or "".
func containerSignal(getenv func(string) string) string {
	switch {
	case getenv("MD2WORD_CONTAINER") == "1":
		return "MD2WORD_CONTAINER=1"
	case fileutil.FileExists("/.dockerenv"):
		return "/.dockerenv"
	case getenv("container") != "":
		return "container=" + getenv("container")
	case getenv("KUBERNETES_SERVICE_HOST") != "":
		return "KUBERNETES_SERVICE_HOST"
	}
	return ""
}

// checkBrowser looks for the browser used to rasterize mermaid diagrams.
// Without one, diagrams stay code blocks, so a miss is only a warning.
func checkBrowser(r *doctorReport, _ *Environment) {
	path := r.Platform.BrowserBinEnv
	if path == "" {
		var found bool
		path, found = launcher.LookPath()
		if !found {
			r.add(sectionBrowser, levelWarn, "Not found: mermaid diagrams stay code blocks (install Chrome or set ROD_BROWSER_BIN)")
			return
		}
	}
	if !fileutil.FileExists(path) {
		r.add(sectionBrowser, levelWarn, "ROD_BROWSER_BIN points to a missing file: %s", path)
		return
	}

	r.Browser.Path = path
	r.Browser.Sandbox = !r.Platform.NoSandbox
	r.add(sectionBrowser, levelOK, "Found at %s", path)

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- detected browser binary
	if err != nil {
		r.add(sectionBrowser, levelWarn, "Could not read version: %v", err)
	} else {
		r.Browser.Version = strings.TrimSpace(string(out))
		r.add(sectionBrowser, levelOK, "Version: %s", r.Browser.Version)
	}
	if r.Browser.Sandbox {
		r.add(sectionBrowser, levelOK, "Sandbox: enabled")
	} else {
		r.add(sectionBrowser, levelOK, "Sandbox: disabled (ROD_NO_SANDBOX=1)")
	}
}

// checkConfig loads the config named by MD2WORD_CONFIG, if any, and lists
// the embedded presets.
func checkConfig(r *doctorReport, env *Environment) {
	r.Config.Presets = assets.PresetNames()

	name := env.Getenv(config.EnvConfig)
	r.Config.Name = name
	if name == "" {
		r.add(sectionConfig, levelOK, "Config: defaults")
	} else if _, err := config.LoadConfig(name); err != nil {
		r.add(sectionConfig, levelError, "%s=%s: %v", config.EnvConfig, name, err)
	} else {
		r.Config.Loaded = true
		r.add(sectionConfig, levelOK, "Config: %s", name)
	}
	r.add(sectionConfig, levelOK, "Presets: %s", strings.Join(r.Config.Presets, ", "))
}

var levelTags = map[string]string{levelOK: "[OK]", levelWarn: "[WARN]", levelError: "[ERROR]"}

// printDoctorReport prints findings grouped by section, then the status.
func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintln(w, "md2word doctor")

	for _, section := range doctorSections {
		printed := false
		for _, f := range r.Findings {
			if f.Section != section {
				continue
			}
			if !printed {
				fmt.Fprintf(w, "\n%s\n", section)
				printed = true
			}
			fmt.Fprintf(w, "  %s %s\n", levelTags[f.Level], f.Message)
		}
	}

	fmt.Fprintln(w)
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	default:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
