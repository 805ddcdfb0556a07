// Package deps reports the state of the external tools voxfeed shells out
// to. Used by `voxfeed doctor`.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckPwRecord checks for the PipeWire capture tool used for audio input.
func CheckPwRecord() Status {
	return check("pw-record", "--version")
}

// CheckNotifySend checks for the desktop notification tool.
func CheckNotifySend() Status {
	return check("notify-send", "--version")
}

func check(name, versionFlag string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	output, err := exec.Command(path, versionFlag).Output()
	if err == nil {
		// first line carries the version string
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}
