package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown audio backend", mutate: func(c *Config) { c.Audio.Backend = "alsa" }, wantErr: "audio.backend"},
		{name: "zero sample rate", mutate: func(c *Config) { c.Audio.SampleRate = 0 }, wantErr: "audio.sample_rate"},
		{name: "zero block size", mutate: func(c *Config) { c.Audio.BlockSize = 0 }, wantErr: "audio.block_size"},
		{name: "zero max recording", mutate: func(c *Config) { c.Audio.MaxRecordingSeconds = 0 }, wantErr: "max_recording_seconds"},
		{name: "empty base url", mutate: func(c *Config) { c.Transcription.BaseURL = " " }, wantErr: "base_url"},
		{name: "empty language", mutate: func(c *Config) { c.Transcription.Language = "" }, wantErr: "transcription.language"},
		{name: "unknown model size", mutate: func(c *Config) { c.Transcription.ModelSize = "huge" }, wantErr: "model_size"},
		{name: "zero beam size", mutate: func(c *Config) { c.Transcription.BeamSize = 0 }, wantErr: "beam_size"},
		{name: "negative timeout", mutate: func(c *Config) { c.Transcription.TimeoutMS = -1 }, wantErr: "timeout_ms"},
		{name: "negative temperature", mutate: func(c *Config) { c.Transcription.Temperature = -0.1 }, wantErr: "temperature"},
		{name: "empty hotkey", mutate: func(c *Config) { c.Hotkey.Key = "" }, wantErr: "hotkey.key"},
		{name: "negative debounce", mutate: func(c *Config) { c.Hotkey.DebounceMS = -1 }, wantErr: "debounce_ms"},
		{name: "inverted durations", mutate: func(c *Config) { c.Validation.MaxDuration = 0.2 }, wantErr: "max_duration"},
		{name: "negative silence threshold", mutate: func(c *Config) { c.Validation.SilenceThreshold = -1 }, wantErr: "thresholds"},
		{name: "normalize target above one", mutate: func(c *Config) { c.Processing.NormalizeTarget = 1.5 }, wantErr: "normalize_target"},
		{name: "unknown output backend", mutate: func(c *Config) { c.Output.Backend = "xdotool" }, wantErr: "output.backend"},
		{name: "unknown output format", mutate: func(c *Config) { c.Output.Format = "html" }, wantErr: "output.format"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Output.Clipboard.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "empty paste shortcut", mutate: func(c *Config) { c.Output.PasteShortcut = "" }, wantErr: "paste_shortcut"},
		{name: "unknown indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "waybar" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) {
			c.Indicator.Backend = "desktop"
			c.Indicator.AppName = ""
		}, wantErr: "app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "volume above one", mutate: func(c *Config) { c.Indicator.Volume = 2 }, wantErr: "indicator.volume"},
		{name: "negative history keep", mutate: func(c *Config) { c.History.Keep = -1 }, wantErr: "history.keep"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateKeybdBackendDoesNotNeedClipboardCommand(t *testing.T) {
	cfg := Default()
	cfg.Output.Backend = "keybd"
	cfg.Output.Clipboard = CommandConfig{}
	cfg.Output.PasteShortcut = ""

	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateAllowsZeroTranscriptionTimeout(t *testing.T) {
	cfg := Default()
	cfg.Transcription.TimeoutMS = 0

	_, err := Validate(cfg)
	require.NoError(t, err)
	require.Zero(t, cfg.Transcription.Timeout())
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Audio.MaxRecordingSeconds = 45
	cfg.Processing.NoiseGate = true
	cfg.Processing.Normalize = false

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "exceeds validation.max_duration")
	require.Contains(t, warnings[1].Message, "noise_gate")
}

func TestValidateWarnsOnMissingOpenAIKey(t *testing.T) {
	t.Setenv("WHISPERKEY_TEST_KEY", "")
	cfg := Default()
	cfg.Transcription.BaseURL = "https://api.openai.com/v1"
	cfg.Transcription.APIKeyEnv = "WHISPERKEY_TEST_KEY"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "$WHISPERKEY_TEST_KEY")

	t.Setenv("WHISPERKEY_TEST_KEY", "sk-test")
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}
