package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/config"
	"github.com/rbright/whisperkey/internal/dictation"
	"github.com/rbright/whisperkey/internal/history"
	"github.com/rbright/whisperkey/internal/hotkey"
	"github.com/rbright/whisperkey/internal/indicator"
	"github.com/rbright/whisperkey/internal/ipc"
	"github.com/rbright/whisperkey/internal/output"
	"github.com/rbright/whisperkey/internal/pipeline"
	"github.com/rbright/whisperkey/internal/validate"
	"github.com/rbright/whisperkey/internal/whisper"
)

// commandListen owns the hotkey socket and runs dictation cycles until ctx ends.
func (r Runner) commandListen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return r.fail(err)
	}

	opener, lister, err := audio.Backend(cfg.Audio.Backend)
	if err != nil {
		return r.fail(err)
	}
	selection, err := audio.SelectDevice(ctx, lister, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: select audio device: %v\n", err)
		return 1
	}
	if selection.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
		logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	transcriber, err := newTranscriber(ctx, cfg.Transcription, logger)
	if err != nil {
		return r.fail(err)
	}
	if cfg.Transcription.Warmup {
		if err := transcriber.Warmup(ctx); err != nil {
			fmt.Fprintf(r.Stderr, "warning: %v\n", err)
			logger.Warn("transcription warmup failed", "error", err.Error())
		}
	}

	dispatcher, finder, err := newDispatcher(cfg.Output, logger)
	if err != nil {
		return r.fail(err)
	}

	var store *history.Store
	if cfg.History.Enable {
		store, err = openHistory(ctx, cfg.History)
		if err != nil {
			return r.fail(err)
		}
		defer func() { _ = store.Close() }()
	}

	capture := audio.NewCapture(opener, cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.BlockSize)
	notifier := newIndicator(cfg.Indicator, logger)
	defer notifier.Wait()

	deps := dictation.Deps{
		Orchestrator: newOrchestrator(cfg, capture, transcriber, logger),
		Sender:       output.NewSender(dispatcher, output.SenderOptions{AutoAddSpace: cfg.Output.AutoAddSpace, Format: cfg.Output.Format}, logger),
		Finder:       finder,
		Indicator:    notifier,
		Debouncer:    hotkey.NewDebouncer(cfg.Hotkey.Debounce()),
		Logger:       logger,
	}
	if store != nil {
		deps.History = store
	}

	ctrl := dictation.New(dictation.Config{
		DeviceID:     selection.Device.ID,
		DeviceName:   selection.Device.Label(),
		Options:      cycleOptions(cfg),
		MaxRecording: cfg.Audio.MaxRecording(),
		AutoExecute:  cfg.Output.AutoExecute,
		Model:        transcriber.ModelSize(),
		HistoryKeep:  cfg.History.Keep,
	}, deps)

	handler := hotkey.NewSocketHandler(socketPath, logger)
	handler.Fallback = ctrl
	if err := handler.RegisterHotkey(cfg.Hotkey.Key, ctrl.Press, ctrl.Release); err != nil {
		return r.fail(err)
	}
	if err := handler.StartListening(ctx); err != nil {
		if !errors.Is(err, ipc.ErrAlreadyRunning) {
			err = fmt.Errorf("start hotkey listener: %w", err)
		}
		return r.fail(err)
	}
	defer func() {
		if err := handler.StopListening(); err != nil {
			logger.Warn("stop hotkey listener failed", "error", err.Error())
		}
	}()

	fmt.Fprintf(r.Stdout, "listening on %s (device %q, key %q)\n", socketPath, selection.Device.Label(), cfg.Hotkey.Key)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printResults(runCtx, ctrl.Results())
	}()

	err = ctrl.Run(runCtx)
	stop()
	<-done
	if err != nil {
		return r.fail(err)
	}
	return 0
}

// printResults echoes delivered text to stdout and rejections to stderr.
func (r Runner) printResults(ctx context.Context, results <-chan dictation.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-results:
			if result.OK() {
				fmt.Fprintln(r.Stdout, strings.TrimSpace(result.Dispatch.Text))
				continue
			}
			fmt.Fprintf(r.Stderr, "%s: %s\n", result.Outcome.Stage, result.Reason)
		}
	}
}

func newTranscriber(ctx context.Context, cfg config.TranscriptionConfig, logger *slog.Logger) (*whisper.Client, error) {
	client := whisper.New(whisper.ConfigFrom(cfg), logger)
	if err := client.LoadModel(ctx, cfg.ModelSize, cfg.Device); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return client, nil
}

func newOrchestrator(cfg config.Config, recorder pipeline.Recorder, transcriber pipeline.Transcriber, logger *slog.Logger) *pipeline.Orchestrator {
	return pipeline.New(pipeline.Deps{
		Recorder:    recorder,
		Transcriber: transcriber,
		Validator: validate.New(validate.Config{
			MinDuration:        cfg.Validation.MinDuration,
			MaxDuration:        cfg.Validation.MaxDuration,
			SilenceThreshold:   cfg.Validation.SilenceThreshold,
			MinPeak:            cfg.Validation.MinPeak,
			MinTextLength:      cfg.Validation.MinTextLength,
			MinRMSForShortText: cfg.Validation.MinRMSForShortText,
			ShortTextMaxLength: cfg.Validation.ShortTextMaxLength,
		}),
		Parser: command.Parser{},
		Processor: audio.NewProcessor(audio.ProcessingConfig{
			NormalizeTarget: cfg.Processing.NormalizeTarget,
			TrimThreshold:   cfg.Processing.TrimThreshold,
			GateThreshold:   cfg.Processing.GateThreshold,
		}),
		Logger: logger,
		Debug:  pipeline.DebugConfig{AudioDump: cfg.Debug.AudioDump, Dir: cfg.Debug.Dir},
	})
}

func cycleOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Language:    cfg.Transcription.Language,
		Normalize:   cfg.Processing.Normalize,
		TrimSilence: cfg.Processing.TrimSilence,
		NoiseGate:   cfg.Processing.NoiseGate,
	}
}

// newDispatcher picks the output backend. Only hypr can resolve windows by name.
func newDispatcher(cfg config.OutputConfig, logger *slog.Logger) (output.Dispatcher, dictation.WindowFinder, error) {
	switch cfg.Backend {
	case "", "hypr":
		d := output.NewHyprDispatcher(output.HyprOptions{
			ClipboardArgv:     cfg.Clipboard.Argv,
			ClipboardReadArgv: cfg.ClipboardRead.Argv,
			PasteShortcut:     cfg.PasteShortcut,
			RestoreDelay:      cfg.RestoreDelay(),
		}, logger)
		return d, d, nil
	case "keybd":
		d, err := output.NewKeybdDispatcher(logger)
		if err != nil {
			return nil, nil, fmt.Errorf("keybd output: %w", err)
		}
		return d, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown output backend %q", cfg.Backend)
	}
}

func newIndicator(cfg config.IndicatorConfig, logger *slog.Logger) *indicator.Notifier {
	return indicator.New(indicator.Options{
		Visual:  cfg.Enable,
		Backend: cfg.Backend,
		Sound:   cfg.SoundEnable,
		Tones: indicator.Tones{
			StartHz:   cfg.StartHz,
			StopHz:    cfg.StopHz,
			ErrorHz:   cfg.ErrorHz,
			SuccessHz: cfg.SuccessHz,
			Duration:  cfg.Beep(),
			Volume:    cfg.Volume,
		},
		ErrorTimeout: cfg.ErrorTimeout(),
		AppName:      cfg.AppName,
		Messages: indicator.Messages{
			Recording:  cfg.TextRecording,
			Processing: cfg.TextProcessing,
			Error:      cfg.TextError,
		},
	}, logger)
}

func historyPath(cfg config.HistoryConfig) (string, error) {
	if p := strings.TrimSpace(cfg.Path); p != "" {
		return p, nil
	}
	return history.DefaultPath()
}

func openHistory(ctx context.Context, cfg config.HistoryConfig) (*history.Store, error) {
	path, err := historyPath(cfg)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}
