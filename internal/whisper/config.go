package whisper

import (
	"os"
	"strings"

	"github.com/rbright/whisperkey/internal/config"
)

// ConfigFrom maps the transcription config section. The API key is read from
// the environment variable it names.
func ConfigFrom(t config.TranscriptionConfig) Config {
	var key string
	if env := strings.TrimSpace(t.APIKeyEnv); env != "" {
		key = os.Getenv(env)
	}
	return Config{
		BaseURL:     t.BaseURL,
		APIKey:      key,
		Model:       t.Model,
		ModelSize:   t.ModelSize,
		Device:      t.Device,
		Language:    t.Language,
		Temperature: t.Temperature,
		BeamSize:    t.BeamSize,
		BestOf:      t.BestOf,
		Prompt:      t.Prompt,
		Timeout:     t.Timeout(),
	}
}
