// Package bus is the control plane between the voxfeed CLI and the daemon:
// a unix socket carrying one-letter commands with an optional payload, plus
// a pid file to keep the daemon single-instance.
package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const SockName = "control.sock"
const PidName = "voxfeedd.pid"
const ProtoVer = "0.1"

// Commands understood by the daemon.
const (
	CmdToggle  = 't' // start/stop listening
	CmdSubmit  = 'f' // submit the buffer (payload replaces the buffer first)
	CmdDraft   = 'd' // replace the buffer with the payload
	CmdStatus  = 's'
	CmdVersion = 'v'
	CmdQuit    = 'q'
)

// ~/.cache/voxfeed/control.sock
func SockPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxfeed", SockName), nil
}

// ~/.cache/voxfeed/voxfeedd.pid
func PidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxfeed", PidName), nil
}

func Listen() (net.Listener, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sp)
}

// SendCommand sends one command line ("<cmd>[ payload]\n") and reads the
// single-line response.
func SendCommand(cmd byte, payload string) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	line := string(cmd)
	if payload != "" {
		line += " " + payload
	}
	if _, err := fmt.Fprintf(c, "%s\n", line); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

// ParseCommand splits a received line into command byte and payload.
func ParseCommand(line string) (byte, string, error) {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return 0, "", fmt.Errorf("empty command")
	}
	cmd := line[0]
	payload := ""
	if len(line) > 1 {
		payload = strings.TrimPrefix(line[1:], " ")
	}
	return cmd, payload, nil
}

// pidManager handles the daemon pid file at a fixed path. The zero path
// variant built by defaultPidManager uses the standard cache location.
type pidManager struct {
	path string
}

func defaultPidManager() (*pidManager, error) {
	p, err := PidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: p}, nil
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting returns an error when a live daemon already owns the pid
// file; stale files are silently ignored.
func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		return nil // invalid pid file, assume stale
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return nil // process not alive, stale pid file
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func CheckExistingDaemon() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
