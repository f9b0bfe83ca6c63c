package whisper

import (
	"testing"
	"time"

	"github.com/rbright/whisperkey/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfigFromReadsKeyFromNamedEnv(t *testing.T) {
	t.Setenv("WHISPERKEY_TEST_API_KEY", "sk-test")

	section := config.Default().Transcription
	section.APIKeyEnv = "WHISPERKEY_TEST_API_KEY"
	section.Prompt = "Hyprland, Wayland"

	cfg := ConfigFrom(section)
	require.Equal(t, "sk-test", cfg.APIKey)
	require.Equal(t, "base", cfg.ModelSize)
	require.Equal(t, "en", cfg.Language)
	require.Equal(t, 5, cfg.BeamSize)
	require.Equal(t, 5, cfg.BestOf)
	require.Equal(t, "Hyprland, Wayland", cfg.Prompt)
	require.Equal(t, time.Minute, cfg.Timeout)

	section.APIKeyEnv = ""
	require.Empty(t, ConfigFrom(section).APIKey)
}
