package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// autolaunchAddresses runs the dbus-launch helper to discover (and if
// necessary start) a session bus, returning the addresses it reports.
func autolaunchAddresses(ctx context.Context, scope string) ([]string, error) {
	args := []string{"--autolaunch", scope, "--binary-syntax"}
	cmd := exec.CommandContext(ctx, "dbus-launch", args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, &LauncherFailure{Launcher: "dbus-launch", Reason: err}
	}
	addrs, err := parseAutolaunchOutput(out)
	if err != nil {
		return nil, &LauncherFailure{Launcher: "dbus-launch", Reason: err}
	}
	return addrs, nil
}

// parseAutolaunchOutput parses dbus-launch --binary-syntax output: a
// NUL-separated "KEY=VALUE" list, where the BUS_ADDRESS entry is the
// one we want. Some dbus-launch builds instead newline-terminate
// fields; both are accepted.
func parseAutolaunchOutput(out []byte) ([]string, error) {
	sep := []byte{0}
	if !bytes.Contains(out, sep) {
		sep = []byte{'\n'}
	}
	for _, field := range bytes.Split(out, sep) {
		field = bytes.TrimSpace(field)
		if len(field) == 0 {
			continue
		}
		k, v, ok := strings.Cut(string(field), "=")
		if !ok {
			continue
		}
		if k == "DBUS_SESSION_BUS_ADDRESS" {
			return []string{v}, nil
		}
	}
	return nil, fmt.Errorf("dbus-launch output did not contain DBUS_SESSION_BUS_ADDRESS")
}
