//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillTree force-terminates pid and its child processes with taskkill.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort: the launcher's own Kill runs afterwards.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
