package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	md2word "github.com/alnah/go-md2word"
	"github.com/alnah/go-md2word/internal/assets"
	"github.com/alnah/go-md2word/internal/config"
	"github.com/alnah/go-md2word/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Configure GOMAXPROCS with conditional logging. The pool size derives
	// from it.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "-v") || slices.Contains(os.Args, "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "convert":
		ctx, stop := notifyContext(context.Background())
		defer stop()
		return report(env, runConvert(ctx, rest, env))
	case "inspect":
		return report(env, runInspect(rest, env))
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		return report(env, runCompletion(rest, env))
	case "help", "-h", "--help":
		return runHelp(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "md2word %s\n", Version)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// report prints err with its hint and returns the matching exit code.
func report(env *Environment, err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, env))
	return exitCodeFor(err)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, env *Environment) string {
	switch {
	case errors.Is(err, md2word.ErrBrowserConnect):
		return hints.ForBrowserConnect(hostFor(env))
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, assets.ErrPresetNotFound):
		return hints.ForPresetNotFound(assets.PresetNames())
	case errors.Is(err, md2word.ErrInvalidOptions):
		return hints.ForInvalidOptions()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// hostFor describes the machine for the browser hint.
func hostFor(env *Environment) hints.Host {
	h := hints.Host{
		Container:  containerSignal(env.Getenv) != "",
		NoSandbox:  env.Getenv("ROD_NO_SANDBOX") == "1",
		BrowserBin: env.Getenv(config.EnvBrowserBin) != "",
	}
	for _, v := range ciVars {
		h.CI = h.CI || env.Getenv(v) != ""
	}
	return h
}

// triedPaths recovers the searched locations from a config lookup error.
func triedPaths(err error) []string {
	msg := err.Error()
	i := strings.LastIndex(msg, "tried ")
	if i < 0 {
		return nil
	}
	return strings.Split(msg[i+len("tried "):], ", ")
}
