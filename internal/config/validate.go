package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

var (
	audioBackends     = []string{"pulse", "portaudio"}
	outputBackends    = []string{"hypr", "keybd"}
	outputFormats     = []string{"text", "tags"}
	indicatorBackends = []string{"hypr", "desktop"}
	modelSizes        = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "turbo"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := oneOf("audio.backend", cfg.Audio.Backend, audioBackends); err != nil {
		return nil, err
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be > 0")
	}
	if cfg.Audio.Channels <= 0 {
		return nil, fmt.Errorf("audio.channels must be > 0")
	}
	if cfg.Audio.BlockSize <= 0 {
		return nil, fmt.Errorf("audio.block_size must be > 0")
	}
	if cfg.Audio.MaxRecordingSeconds <= 0 {
		return nil, fmt.Errorf("audio.max_recording_seconds must be > 0")
	}

	if strings.TrimSpace(cfg.Transcription.BaseURL) == "" {
		return nil, fmt.Errorf("transcription.base_url must not be empty")
	}
	if strings.TrimSpace(cfg.Transcription.Language) == "" {
		return nil, fmt.Errorf("transcription.language must not be empty")
	}
	if err := oneOf("transcription.model_size", cfg.Transcription.ModelSize, modelSizes); err != nil {
		return nil, err
	}
	if cfg.Transcription.BeamSize <= 0 || cfg.Transcription.BestOf <= 0 {
		return nil, fmt.Errorf("transcription.beam_size and transcription.best_of must be > 0")
	}
	if cfg.Transcription.Temperature < 0 {
		return nil, fmt.Errorf("transcription.temperature must be >= 0")
	}
	if cfg.Transcription.TimeoutMS < 0 {
		return nil, fmt.Errorf("transcription.timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Hotkey.Key) == "" {
		return nil, fmt.Errorf("hotkey.key must not be empty")
	}
	if cfg.Hotkey.DebounceMS < 0 {
		return nil, fmt.Errorf("hotkey.debounce_ms must be >= 0")
	}

	v := cfg.Validation
	if v.MinDuration < 0 || v.MaxDuration <= v.MinDuration {
		return nil, fmt.Errorf("validation.max_duration must be greater than validation.min_duration >= 0")
	}
	if v.SilenceThreshold < 0 || v.MinPeak < 0 || v.MinRMSForShortText < 0 {
		return nil, fmt.Errorf("validation thresholds must be >= 0")
	}
	if v.MinTextLength < 0 || v.ShortTextMaxLength < 0 {
		return nil, fmt.Errorf("validation text lengths must be >= 0")
	}

	if cfg.Processing.NormalizeTarget <= 0 || cfg.Processing.NormalizeTarget > 1 {
		return nil, fmt.Errorf("processing.normalize_target must be in (0, 1]")
	}

	if err := oneOf("output.backend", cfg.Output.Backend, outputBackends); err != nil {
		return nil, err
	}
	if err := oneOf("output.format", cfg.Output.Format, outputFormats); err != nil {
		return nil, err
	}
	if cfg.Output.RestoreDelayMS < 0 {
		return nil, fmt.Errorf("output.restore_delay_ms must be >= 0")
	}
	if strings.EqualFold(cfg.Output.Backend, "hypr") {
		if len(cfg.Output.Clipboard.Argv) == 0 {
			return nil, fmt.Errorf("output.clipboard_cmd must not be empty when output.backend=hypr")
		}
		if strings.TrimSpace(cfg.Output.PasteShortcut) == "" {
			return nil, fmt.Errorf("output.paste_shortcut must not be empty when output.backend=hypr")
		}
	}

	if err := oneOf("indicator.backend", cfg.Indicator.Backend, indicatorBackends); err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Indicator.Backend, "desktop") && strings.TrimSpace(cfg.Indicator.AppName) == "" {
		return nil, fmt.Errorf("indicator.app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.BeepMS < 0 {
		return nil, fmt.Errorf("indicator.beep_ms must be >= 0")
	}
	if cfg.Indicator.Volume < 0 || cfg.Indicator.Volume > 1 {
		return nil, fmt.Errorf("indicator.volume must be in [0, 1]")
	}

	if cfg.History.Keep < 0 {
		return nil, fmt.Errorf("history.keep must be >= 0")
	}

	if cfg.Audio.MaxRecordingSeconds > v.MaxDuration {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(
			"audio.max_recording_seconds (%g) exceeds validation.max_duration (%g); long recordings will be rejected",
			cfg.Audio.MaxRecordingSeconds, v.MaxDuration)})
	}
	if cfg.Processing.NoiseGate && !cfg.Processing.Normalize {
		warnings = append(warnings, Warning{Message: "processing.noise_gate without processing.normalize gates at the raw signal level"})
	}
	if env := strings.TrimSpace(cfg.Transcription.APIKeyEnv); env != "" && isOpenAIHost(cfg.Transcription.BaseURL) && os.Getenv(env) == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("transcription.base_url points at OpenAI but $%s is unset", env)})
	}

	return warnings, nil
}

func oneOf(key string, value string, allowed []string) error {
	if lo.Contains(allowed, strings.ToLower(strings.TrimSpace(value))) {
		return nil
	}
	return fmt.Errorf("%s must be one of: %s", key, strings.Join(allowed, ", "))
}

func isOpenAIHost(baseURL string) bool {
	return strings.Contains(strings.ToLower(baseURL), "api.openai.com")
}
