package shutter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// TitlePlaceholder is replaced by the window title in activator arguments.
const TitlePlaceholder = "{title}"

// CommandActivator activates windows by running an external command. A zero
// exit status means the window was found and raised; any other exit status
// means no such window.
type CommandActivator struct {
	Args []string
}

// NewXdotoolActivator returns an activator that uses xdotool.
func NewXdotoolActivator() *CommandActivator {
	return &CommandActivator{Args: []string{
		"xdotool", "search", "--onlyvisible", "--name", TitlePlaceholder, "windowactivate", "--sync",
	}}
}

// Activate implements ports.WindowActivator.
func (a *CommandActivator) Activate(ctx context.Context, title string) (bool, error) {
	if len(a.Args) == 0 {
		return false, errors.New("activator command not configured")
	}
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = strings.ReplaceAll(arg, TitlePlaceholder, title)
	}

	err := exec.CommandContext(ctx, args[0], args[1:]...).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return false, nil
	}
	return false, fmt.Errorf("run %s: %w", args[0], err)
}

// CommandKeySender sends the capture key by running an external command.
type CommandKeySender struct {
	Args []string
}

// NewXdotoolKeySender returns a key sender that presses space via xdotool.
func NewXdotoolKeySender() *CommandKeySender {
	return &CommandKeySender{Args: []string{"xdotool", "key", "space"}}
}

// SendCaptureKey implements ports.KeySender.
func (k *CommandKeySender) SendCaptureKey(ctx context.Context) error {
	if len(k.Args) == 0 {
		return errors.New("key command not configured")
	}
	if err := exec.CommandContext(ctx, k.Args[0], k.Args[1:]...).Run(); err != nil {
		return fmt.Errorf("run %s: %w", k.Args[0], err)
	}
	return nil
}

// NoopKeySender accepts every key press without doing anything. It is used
// for dry runs.
type NoopKeySender struct{}

// SendCaptureKey implements ports.KeySender.
func (NoopKeySender) SendCaptureKey(context.Context) error { return nil }

// StaticActivator reports every title in Titles as present. It is used for
// dry runs and tests.
type StaticActivator struct {
	Titles []string
}

// Activate implements ports.WindowActivator.
func (a StaticActivator) Activate(_ context.Context, title string) (bool, error) {
	for _, t := range a.Titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}
