package tracee

import (
	"os"
	"strconv"

	"godbg/logging"
)

// ReconcileThreads sweeps /proc/<pid>/task and registers any tid not
// already tracked, a belt-and-suspenders path for clone notifications
// dropped under heavy load (`check_for_new_threads` in the Python
// original).
func (tr *Tracee) ReconcileThreads() error {
	taskDir := "/proc/" + strconv.Itoa(tr.Pid()) + "/task"
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if _, ok := tr.ThreadByTid(tid); ok {
			continue
		}
		if err := tr.RegisterThread(tid); err != nil {
			return err
		}
		logging.Default().Debug("manually registered new thread", "tid", tid)
	}
	return nil
}
