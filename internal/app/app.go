// Package app is the whisperkey composition root: it parses the command line,
// loads config and logging, and dispatches to one command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/whisperkey/internal/cli"
	"github.com/rbright/whisperkey/internal/config"
	"github.com/rbright/whisperkey/internal/doctor"
	"github.com/rbright/whisperkey/internal/ipc"
	"github.com/rbright/whisperkey/internal/logging"
	"github.com/rbright/whisperkey/internal/version"
)

const binaryName = "whisperkey"

// Runner executes one command with injectable output streams.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Execute runs args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute returns 0 on success, 1 on runtime failure, and 2 on usage errors.
func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	inv, err := r.prepare(parsed)
	if err != nil {
		return r.fail(err)
	}
	defer inv.close()

	logger, cfgLoaded, cfg := inv.logger, inv.loaded, inv.loaded.Config
	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", inv.logPath,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, doctor.Hooks{})
		fmt.Fprintln(r.Stdout, report.Render())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx, cfg)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandPress, Key: parsed.Key})
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandRelease, Key: parsed.Key})
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandCancel})
	case cli.CommandListen:
		return r.commandListen(ctx, cfg, logger)
	case cli.CommandTranscribe:
		return r.commandTranscribe(ctx, cfg, parsed.File, logger)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfg, parsed.Limit)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// invocation is the per-command environment built by prepare.
type invocation struct {
	logger  *slog.Logger
	logPath string
	loaded  config.Loaded
	close   func()
}

// prepare opens the log file and loads config. Config warnings are printed
// and logged; they never fail the command.
func (r Runner) prepare(parsed cli.Parsed) (invocation, error) {
	logRuntime, err := logging.New()
	if err != nil {
		return invocation{}, fmt.Errorf("setup logging: %w", err)
	}
	inv := invocation{
		logger:  r.Logger,
		logPath: logRuntime.Path,
		close:   func() { _ = logRuntime.Close() },
	}
	if inv.logger == nil {
		inv.logger = logRuntime.Logger
	}

	inv.loaded, err = config.Load(parsed.ConfigPath)
	if err != nil {
		inv.logger.Error("load config failed", "error", err.Error())
		inv.close()
		return invocation{}, err
	}
	for _, w := range inv.loaded.Warnings {
		r.warn(inv.logger, w)
	}
	return inv, nil
}

func (r Runner) warn(logger *slog.Logger, w config.Warning) {
	msg := w.Message
	if w.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", w.Line, msg)
	}
	fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
	logger.Warn("config warning", "line", w.Line, "message", w.Message)
}

// fail prints err and returns the runtime-failure exit code.
func (r Runner) fail(err error) int {
	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	return 1
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if handled {
		if err != nil {
			return r.fail(err)
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return r.fail(err)
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: whisperkey is not listening (start it with `%s listen`)\n", binaryName)
		return 1
	}
	if err != nil {
		return r.fail(err)
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward sends req to a running listener. handled is false when nothing
// owns the socket.
func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Client{Path: socketPath}.Do(ctx, req)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.NotListening(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
