// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// and the transcription server.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/config"
	"github.com/rbright/whisperkey/internal/history"
	"github.com/rbright/whisperkey/internal/whisper"
	"github.com/samber/lo"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	return lo.EveryBy(r.Checks, func(c Check) bool { return c.Pass })
}

// String renders the report as plain text.
func (r Report) String() string {
	lines := lo.Map(r.Checks, func(check Check, _ int) string {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		return fmt.Sprintf("[%s] %s: %s", status, check.Name, check.Message)
	})
	return strings.Join(lines, "\n")
}

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// Render styles the report for a terminal.
func (r Report) Render() string {
	width := lo.Max(lo.Map(r.Checks, func(c Check, _ int) int { return len(c.Name) }))
	lines := lo.Map(r.Checks, func(check Check, _ int) string {
		status := passStyle.Render("✓")
		if !check.Pass {
			status = failStyle.Render("✗")
		}
		name := nameStyle.Width(width).Render(check.Name)
		return lipgloss.JoinHorizontal(lipgloss.Top, status, " ", name, "  ", messageStyle.Render(check.Message))
	})

	failed := lo.CountBy(r.Checks, func(c Check) bool { return !c.Pass })
	summary := passStyle.Render("all checks passed")
	if failed > 0 {
		summary = failStyle.Render(fmt.Sprintf("%d of %d checks failed", failed, len(r.Checks)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, summaryStyle.Render(summary))...)
}

// Pinger confirms the transcription endpoint answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Hooks are the environment checks Run uses. Zero fields use the live system.
type Hooks struct {
	Lister     audio.Lister
	Pinger     Pinger
	UinputPath string
	Timeout    time.Duration
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, hooks Hooks) Report {
	cfg := loaded.Config
	if hooks.Timeout <= 0 {
		hooks.Timeout = 2 * time.Second
	}
	if hooks.UinputPath == "" {
		hooks.UinputPath = "/dev/uinput"
	}

	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	usesHypr := strings.EqualFold(cfg.Output.Backend, "hypr") ||
		(cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "hypr"))
	if usesHypr {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkBinary("hyprctl", "hypr output and notifications require hyprctl"))
	}

	switch strings.ToLower(cfg.Output.Backend) {
	case "hypr":
		checks = append(checks, checkCommand(cfg.Output.Clipboard.Argv, "output.clipboard_cmd"))
		if len(cfg.Output.ClipboardRead.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.Output.ClipboardRead.Argv, "output.clipboard_read_cmd"))
		}
	case "keybd":
		checks = append(checks, checkUinput(hooks.UinputPath))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg, hooks.Lister))
	checks = append(checks, checkTranscription(ctx, cfg, hooks))

	if cfg.History.Enable {
		checks = append(checks, checkHistory(ctx, cfg.History.Path))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 && loaded.Exists {
		message = fmt.Sprintf("%s (%d warnings)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	check := checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
	check.Name = name
	return check
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkUinput confirms the virtual keyboard device can be opened for writing.
func checkUinput(path string) Check {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return Check{Name: "uinput", Pass: false, Message: fmt.Sprintf("cannot open %s for keybd output: %v", path, err)}
	}
	_ = f.Close()
	return Check{Name: "uinput", Pass: true, Message: fmt.Sprintf("%s is writable", path)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config, lister audio.Lister) Check {
	name := "audio." + cfg.Audio.Backend
	if lister == nil {
		_, backendLister, err := audio.Backend(cfg.Audio.Backend)
		if err != nil {
			return Check{Name: name, Pass: false, Message: err.Error()}
		}
		lister = backendLister
	}

	selection, err := audio.SelectDevice(ctx, lister, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.Label())
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: name, Pass: true, Message: message}
}

// checkTranscription lists models on the configured endpoint.
func checkTranscription(ctx context.Context, cfg config.Config, hooks Hooks) Check {
	pinger := hooks.Pinger
	if pinger == nil {
		pinger = whisper.New(whisper.ConfigFrom(cfg.Transcription), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, hooks.Timeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return Check{Name: "transcription", Pass: false, Message: fmt.Sprintf("%s: %v", cfg.Transcription.BaseURL, err)}
	}
	return Check{Name: "transcription", Pass: true, Message: fmt.Sprintf("reachable at %s (model size %s)", cfg.Transcription.BaseURL, cfg.Transcription.ModelSize)}
}

// checkHistory opens the history store, creating it when absent.
func checkHistory(ctx context.Context, path string) Check {
	if strings.TrimSpace(path) == "" {
		defaultPath, err := history.DefaultPath()
		if err != nil {
			return Check{Name: "history", Pass: false, Message: err.Error()}
		}
		path = defaultPath
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return Check{Name: "history", Pass: false, Message: err.Error()}
	}
	_ = store.Close()
	return Check{Name: "history", Pass: true, Message: fmt.Sprintf("store ready at %s", path)}
}
