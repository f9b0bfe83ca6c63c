// Package config resolves, parses, validates, and defaults whisperkey configuration.
package config

// Config is the fully materialized runtime configuration used by whisperkey.
type Config struct {
	Audio         AudioConfig
	Transcription TranscriptionConfig
	Hotkey        HotkeyConfig
	Validation    ValidationConfig
	Processing    ProcessingConfig
	Output        OutputConfig
	Indicator     IndicatorConfig
	History       HistoryConfig
	Debug         DebugConfig
}

// AudioConfig controls the capture backend, source selection, and stream shape.
type AudioConfig struct {
	Backend             string
	Input               string
	Fallback            string
	SampleRate          int
	Channels            int
	BlockSize           int
	MaxRecordingSeconds float64
}

// TranscriptionConfig controls the speech-to-text endpoint and decoding hints.
type TranscriptionConfig struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	ModelSize   string
	Device      string
	Language    string
	Temperature float64
	BeamSize    int
	BestOf      int
	Prompt      string
	TimeoutMS   int
	Warmup      bool
}

// HotkeyConfig controls the push-to-talk key and release debounce.
type HotkeyConfig struct {
	Key        string
	DebounceMS int
}

// ValidationConfig holds the audio and transcription gates.
type ValidationConfig struct {
	MinDuration        float64
	MaxDuration        float64
	SilenceThreshold   float64
	MinPeak            float64
	MinTextLength      int
	MinRMSForShortText float64
	ShortTextMaxLength int
}

// ProcessingConfig selects and tunes the post-capture transforms.
type ProcessingConfig struct {
	Normalize       bool
	TrimSilence     bool
	NoiseGate       bool
	NormalizeTarget float64
	TrimThreshold   float64
	GateThreshold   float64
}

// OutputConfig controls how recognized text reaches the focused window.
type OutputConfig struct {
	Backend        string
	AutoAddSpace   bool
	AutoExecute    bool
	Format         string
	PasteShortcut  string
	RestoreDelayMS int
	Clipboard      CommandConfig
	ClipboardRead  CommandConfig
}

// IndicatorConfig controls visual notifications and audio cues.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	AppName        string
	SoundEnable    bool
	StartHz        float64
	StopHz         float64
	ErrorHz        float64
	SuccessHz      float64
	BeepMS         int
	Volume         float64
	TextRecording  string
	TextProcessing string
	TextError      string
	ErrorTimeoutMS int
}

// HistoryConfig controls the optional transcription history store.
type HistoryConfig struct {
	Enable bool
	Path   string
	Keep   int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump bool
	Dir       string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
