package main

import (
	"strings"
	"testing"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{nil, ExitSuccess, "Usage: md2word <command>", ""},
		{[]string{"convert"}, ExitSuccess, "Usage: md2word convert <input>", ""},
		{[]string{"inspect"}, ExitSuccess, "Usage: md2word inspect", ""},
		{[]string{"doctor"}, ExitSuccess, "Usage: md2word doctor", ""},
		{[]string{"completion"}, ExitSuccess, "Usage: md2word completion <shell>", ""},
		{[]string{"version"}, ExitSuccess, "Usage: md2word version", ""},
		{[]string{"help"}, ExitSuccess, "Usage: md2word help [command]", ""},
		{[]string{"render"}, ExitUsage, "", "Unknown command: render"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(append([]string{"help"}, tt.args...), " "), func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv("", nil)
			if code := runHelp(tt.args, env); code != tt.wantCode {
				t.Errorf("runHelp(%v) = %d, want %d", tt.args, code, tt.wantCode)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
