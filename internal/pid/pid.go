package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

const pidFile = "deviceapi.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID. It fails with ErrAlreadyRunning
// when a live process still owns the PID file.
func Write() error {
	errFactory := errors.New()

	if existing, err := read(); err == nil && alive(existing) {
		return errFactory.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file. A missing file is not an error.
func Remove() error {
	if err := os.Remove(path()); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func read() (int, error) {
	bytes, err := os.ReadFile(path())
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(string(bytes))
}

// alive probes the process with signal 0, which tests existence without
// delivering anything.
func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
