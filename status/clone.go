package status

import "godbg/ptrace"

// handleClone implements spec.md §4.4c (`_handle_clone`). The new thread is
// initially SIGSTOP-stopped; if the current batch doesn't already carry its
// notification (the literal wait-status 4991), consume it explicitly before
// registering the thread.
func handleClone(ctx Context, newTid int, batch []TidStatus) error {
	seen := false
	for _, ts := range batch {
		if ts.Tid == newTid && int(ts.Status) == ptrace.RaceSigstopStatus {
			seen = true
			break
		}
	}
	if !seen {
		if err := ctx.ConsumeSigstop(newTid); err != nil {
			return err
		}
	}
	return ctx.RegisterThread(newTid)
}
