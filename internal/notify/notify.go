package notify

import (
	"fmt"
	"log"
	"os/exec"
)

type Notifier interface {
	ListeningChanged(on bool)
	Error(msg string)
	Submitted()
	SubmitFailed(msg string)
}

// Desktop sends notifications through notify-send.
type Desktop struct{}

func (Desktop) ListeningChanged(on bool) {
	state := "Stopped"
	if on {
		state = "Started"
	}
	send(fmt.Sprintf("Voxfeed: %s Listening", state), false)
}

func (Desktop) Error(msg string) {
	send("Voxfeed: "+msg, true)
}

func (Desktop) Submitted() {
	send("Voxfeed: Feedback submitted", false)
}

func (Desktop) SubmitFailed(msg string) {
	send("Voxfeed: Submission failed: "+msg, true)
}

func send(msg string, critical bool) {
	args := []string{"-a", "Voxfeed"}
	if critical {
		args = append(args, "-u", "critical")
	}
	args = append(args, msg)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the daemon log instead of the desktop.
type Log struct{}

func (Log) ListeningChanged(on bool) { log.Printf("notify: listening=%v", on) }
func (Log) Error(msg string)         { log.Printf("notify: error: %s", msg) }
func (Log) Submitted()               { log.Printf("notify: feedback submitted") }
func (Log) SubmitFailed(msg string)  { log.Printf("notify: submission failed: %s", msg) }

// Nop does nothing. Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) ListeningChanged(on bool) {}
func (Nop) Error(msg string)         {}
func (Nop) Submitted()               {}
func (Nop) SubmitFailed(msg string)  {}

// ForType picks a notifier by the configured type; enabled=false or an
// unknown type falls back to Nop.
func ForType(enabled bool, typ string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch typ {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}
