//go:build windows

package netlogolink

import (
	"os"
	"os/exec"
	"os/signal"
)

func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt)
}

func stopSignals(c chan os.Signal) {
	signal.Stop(c)
}

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no polite termination for console-less children, so both
// steps kill.
func signalTerminate(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
