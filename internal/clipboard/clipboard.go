// Package clipboard copies bookmark identifiers to the system clipboard, so
// they can be pasted into a word processor's link dialog.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tool is a command that reads clipboard content from stdin.
type tool struct {
	name string
	args []string
}

// tools lists the clipboard writers tried for each platform, in order.
var tools = map[string][]tool{
	"darwin":  {{name: "pbcopy"}},
	"windows": {{name: "clip"}},
	"linux": {
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// find returns the first installed clipboard tool for goos.
func find(goos string) (tool, error) {
	for _, t := range tools[goos] {
		if _, err := lookPath(t.name); err == nil {
			return t, nil
		}
	}
	return tool{}, ErrClipboardUnavailable
}

// IsAvailable reports whether a clipboard tool is installed.
func IsAvailable() bool {
	_, err := find(runtime.GOOS)
	return err == nil
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	t, err := find(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(t.name, t.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
