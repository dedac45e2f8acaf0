package process

// Notes:
// - Only non-existent and non-positive PIDs are exercised: a real PID would
//   kill a live process group, and 0 would target the test's own group.

import "testing"

// ---------------------------------------------------------------------------
// TestKillTree - Harmless PIDs
// ---------------------------------------------------------------------------

func TestKillTree(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{-1, 0, 999999999} {
		KillTree(pid)
	}
}
