package config

import (
	"fmt"
	"strings"
)

// fileConfig is the on-disk shape shared by the JSONC and YAML parsers.
// Nil fields keep the base value.
type fileConfig struct {
	Audio         *fileAudio         `json:"audio" yaml:"audio"`
	Transcription *fileTranscription `json:"transcription" yaml:"transcription"`
	Hotkey        *fileHotkey        `json:"hotkey" yaml:"hotkey"`
	Validation    *fileValidation    `json:"validation" yaml:"validation"`
	Processing    *fileProcessing    `json:"processing" yaml:"processing"`
	Output        *fileOutput        `json:"output" yaml:"output"`
	Indicator     *fileIndicator     `json:"indicator" yaml:"indicator"`
	History       *fileHistory       `json:"history" yaml:"history"`
	Debug         *fileDebug         `json:"debug" yaml:"debug"`
}

type fileAudio struct {
	Backend             *string  `json:"backend" yaml:"backend"`
	Input               *string  `json:"input" yaml:"input"`
	Fallback            *string  `json:"fallback" yaml:"fallback"`
	SampleRate          *int     `json:"sample_rate" yaml:"sample_rate"`
	Channels            *int     `json:"channels" yaml:"channels"`
	BlockSize           *int     `json:"block_size" yaml:"block_size"`
	MaxRecordingSeconds *float64 `json:"max_recording_seconds" yaml:"max_recording_seconds"`
}

type fileTranscription struct {
	BaseURL     *string  `json:"base_url" yaml:"base_url"`
	APIKeyEnv   *string  `json:"api_key_env" yaml:"api_key_env"`
	Model       *string  `json:"model" yaml:"model"`
	ModelSize   *string  `json:"model_size" yaml:"model_size"`
	Device      *string  `json:"device" yaml:"device"`
	Language    *string  `json:"language" yaml:"language"`
	Temperature *float64 `json:"temperature" yaml:"temperature"`
	BeamSize    *int     `json:"beam_size" yaml:"beam_size"`
	BestOf      *int     `json:"best_of" yaml:"best_of"`
	Prompt      *string  `json:"prompt" yaml:"prompt"`
	TimeoutMS   *int     `json:"timeout_ms" yaml:"timeout_ms"`
	Warmup      *bool    `json:"warmup" yaml:"warmup"`
}

type fileHotkey struct {
	Key        *string `json:"key" yaml:"key"`
	DebounceMS *int    `json:"debounce_ms" yaml:"debounce_ms"`
}

type fileValidation struct {
	MinDuration        *float64 `json:"min_duration" yaml:"min_duration"`
	MaxDuration        *float64 `json:"max_duration" yaml:"max_duration"`
	SilenceThreshold   *float64 `json:"silence_threshold" yaml:"silence_threshold"`
	MinPeak            *float64 `json:"min_peak" yaml:"min_peak"`
	MinTextLength      *int     `json:"min_text_length" yaml:"min_text_length"`
	MinRMSForShortText *float64 `json:"min_rms_for_short_text" yaml:"min_rms_for_short_text"`
	ShortTextMaxLength *int     `json:"short_text_max_length" yaml:"short_text_max_length"`
}

type fileProcessing struct {
	Normalize       *bool    `json:"normalize" yaml:"normalize"`
	TrimSilence     *bool    `json:"trim_silence" yaml:"trim_silence"`
	NoiseGate       *bool    `json:"noise_gate" yaml:"noise_gate"`
	NormalizeTarget *float64 `json:"normalize_target" yaml:"normalize_target"`
	TrimThreshold   *float64 `json:"trim_threshold" yaml:"trim_threshold"`
	GateThreshold   *float64 `json:"gate_threshold" yaml:"gate_threshold"`
}

type fileOutput struct {
	Backend          *string `json:"backend" yaml:"backend"`
	AutoAddSpace     *bool   `json:"auto_add_space" yaml:"auto_add_space"`
	AutoExecute      *bool   `json:"auto_execute" yaml:"auto_execute"`
	Format           *string `json:"format" yaml:"format"`
	PasteShortcut    *string `json:"paste_shortcut" yaml:"paste_shortcut"`
	RestoreDelayMS   *int    `json:"restore_delay_ms" yaml:"restore_delay_ms"`
	ClipboardCmd     *string `json:"clipboard_cmd" yaml:"clipboard_cmd"`
	ClipboardReadCmd *string `json:"clipboard_read_cmd" yaml:"clipboard_read_cmd"`
}

type fileIndicator struct {
	Enable         *bool    `json:"enable" yaml:"enable"`
	Backend        *string  `json:"backend" yaml:"backend"`
	AppName        *string  `json:"app_name" yaml:"app_name"`
	SoundEnable    *bool    `json:"sound_enable" yaml:"sound_enable"`
	StartHz        *float64 `json:"start_hz" yaml:"start_hz"`
	StopHz         *float64 `json:"stop_hz" yaml:"stop_hz"`
	ErrorHz        *float64 `json:"error_hz" yaml:"error_hz"`
	SuccessHz      *float64 `json:"success_hz" yaml:"success_hz"`
	BeepMS         *int     `json:"beep_ms" yaml:"beep_ms"`
	Volume         *float64 `json:"volume" yaml:"volume"`
	TextRecording  *string  `json:"text_recording" yaml:"text_recording"`
	TextProcessing *string  `json:"text_processing" yaml:"text_processing"`
	TextError      *string  `json:"text_error" yaml:"text_error"`
	ErrorTimeoutMS *int     `json:"error_timeout_ms" yaml:"error_timeout_ms"`
}

type fileHistory struct {
	Enable *bool   `json:"enable" yaml:"enable"`
	Path   *string `json:"path" yaml:"path"`
	Keep   *int    `json:"keep" yaml:"keep"`
}

type fileDebug struct {
	AudioDump *bool   `json:"audio_dump" yaml:"audio_dump"`
	Dir       *string `json:"dir" yaml:"dir"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (payload fileConfig) applyTo(cfg *Config) error {
	if a := payload.Audio; a != nil {
		setTrimmed(&cfg.Audio.Backend, a.Backend)
		setTrimmed(&cfg.Audio.Input, a.Input)
		setTrimmed(&cfg.Audio.Fallback, a.Fallback)
		set(&cfg.Audio.SampleRate, a.SampleRate)
		set(&cfg.Audio.Channels, a.Channels)
		set(&cfg.Audio.BlockSize, a.BlockSize)
		set(&cfg.Audio.MaxRecordingSeconds, a.MaxRecordingSeconds)
	}

	if t := payload.Transcription; t != nil {
		setTrimmed(&cfg.Transcription.BaseURL, t.BaseURL)
		setTrimmed(&cfg.Transcription.APIKeyEnv, t.APIKeyEnv)
		setTrimmed(&cfg.Transcription.Model, t.Model)
		setTrimmed(&cfg.Transcription.ModelSize, t.ModelSize)
		setTrimmed(&cfg.Transcription.Device, t.Device)
		setTrimmed(&cfg.Transcription.Language, t.Language)
		set(&cfg.Transcription.Temperature, t.Temperature)
		set(&cfg.Transcription.BeamSize, t.BeamSize)
		set(&cfg.Transcription.BestOf, t.BestOf)
		set(&cfg.Transcription.Prompt, t.Prompt)
		set(&cfg.Transcription.TimeoutMS, t.TimeoutMS)
		set(&cfg.Transcription.Warmup, t.Warmup)
	}

	if h := payload.Hotkey; h != nil {
		setTrimmed(&cfg.Hotkey.Key, h.Key)
		set(&cfg.Hotkey.DebounceMS, h.DebounceMS)
	}

	if v := payload.Validation; v != nil {
		set(&cfg.Validation.MinDuration, v.MinDuration)
		set(&cfg.Validation.MaxDuration, v.MaxDuration)
		set(&cfg.Validation.SilenceThreshold, v.SilenceThreshold)
		set(&cfg.Validation.MinPeak, v.MinPeak)
		set(&cfg.Validation.MinTextLength, v.MinTextLength)
		set(&cfg.Validation.MinRMSForShortText, v.MinRMSForShortText)
		set(&cfg.Validation.ShortTextMaxLength, v.ShortTextMaxLength)
	}

	if p := payload.Processing; p != nil {
		set(&cfg.Processing.Normalize, p.Normalize)
		set(&cfg.Processing.TrimSilence, p.TrimSilence)
		set(&cfg.Processing.NoiseGate, p.NoiseGate)
		set(&cfg.Processing.NormalizeTarget, p.NormalizeTarget)
		set(&cfg.Processing.TrimThreshold, p.TrimThreshold)
		set(&cfg.Processing.GateThreshold, p.GateThreshold)
	}

	if o := payload.Output; o != nil {
		setTrimmed(&cfg.Output.Backend, o.Backend)
		set(&cfg.Output.AutoAddSpace, o.AutoAddSpace)
		set(&cfg.Output.AutoExecute, o.AutoExecute)
		setTrimmed(&cfg.Output.Format, o.Format)
		setTrimmed(&cfg.Output.PasteShortcut, o.PasteShortcut)
		set(&cfg.Output.RestoreDelayMS, o.RestoreDelayMS)

		if o.ClipboardCmd != nil {
			cmd, err := ParseCommand(*o.ClipboardCmd)
			if err != nil {
				return fmt.Errorf("invalid output.clipboard_cmd: %w", err)
			}
			cfg.Output.Clipboard = cmd
		}
		if o.ClipboardReadCmd != nil {
			cmd, err := ParseCommand(*o.ClipboardReadCmd)
			if err != nil {
				return fmt.Errorf("invalid output.clipboard_read_cmd: %w", err)
			}
			cfg.Output.ClipboardRead = cmd
		}
	}

	if i := payload.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		setTrimmed(&cfg.Indicator.Backend, i.Backend)
		setTrimmed(&cfg.Indicator.AppName, i.AppName)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		set(&cfg.Indicator.StartHz, i.StartHz)
		set(&cfg.Indicator.StopHz, i.StopHz)
		set(&cfg.Indicator.ErrorHz, i.ErrorHz)
		set(&cfg.Indicator.SuccessHz, i.SuccessHz)
		set(&cfg.Indicator.BeepMS, i.BeepMS)
		set(&cfg.Indicator.Volume, i.Volume)
		set(&cfg.Indicator.TextRecording, i.TextRecording)
		set(&cfg.Indicator.TextProcessing, i.TextProcessing)
		set(&cfg.Indicator.TextError, i.TextError)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if h := payload.History; h != nil {
		set(&cfg.History.Enable, h.Enable)
		setTrimmed(&cfg.History.Path, h.Path)
		set(&cfg.History.Keep, h.Keep)
	}

	if d := payload.Debug; d != nil {
		set(&cfg.Debug.AudioDump, d.AudioDump)
		setTrimmed(&cfg.Debug.Dir, d.Dir)
	}

	return nil
}
