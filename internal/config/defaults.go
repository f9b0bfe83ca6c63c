package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"
	clipboardRead := "wl-paste --no-newline"

	return Config{
		Audio: AudioConfig{
			Backend:             "pulse",
			Input:               "default",
			Fallback:            "default",
			SampleRate:          16000,
			Channels:            1,
			BlockSize:           512,
			MaxRecordingSeconds: 30,
		},
		Transcription: TranscriptionConfig{
			BaseURL:     "http://127.0.0.1:8080/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			ModelSize:   "base",
			Device:      "auto",
			Language:    "en",
			Temperature: 0,
			BeamSize:    5,
			BestOf:      5,
			TimeoutMS:   60000,
			Warmup:      true,
		},
		Hotkey: HotkeyConfig{
			Key:        "right ctrl",
			DebounceMS: 500,
		},
		Validation: ValidationConfig{
			MinDuration:        0.5,
			MaxDuration:        30,
			SilenceThreshold:   0.001,
			MinPeak:            0.01,
			MinTextLength:      1,
			MinRMSForShortText: 0.01,
			ShortTextMaxLength: 15,
		},
		Processing: ProcessingConfig{
			Normalize:       true,
			TrimSilence:     true,
			NoiseGate:       false,
			NormalizeTarget: 0.9,
			TrimThreshold:   0.001,
			GateThreshold:   0.001,
		},
		Output: OutputConfig{
			Backend:        "hypr",
			AutoAddSpace:   true,
			AutoExecute:    false,
			Format:         "text",
			PasteShortcut:  "CTRL,V",
			RestoreDelayMS: 150,
			Clipboard:      MustParseCommand(clipboard),
			ClipboardRead:  MustParseCommand(clipboardRead),
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			AppName:        "whisperkey",
			SoundEnable:    true,
			StartHz:        800,
			StopHz:         600,
			ErrorHz:        400,
			SuccessHz:      1000,
			BeepMS:         100,
			Volume:         0.2,
			TextRecording:  "Recording…",
			TextProcessing: "Transcribing…",
			TextError:      "Speech recognition error",
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{
			Enable: false,
			Keep:   1000,
		},
		Debug: DebugConfig{},
	}
}
