package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/whisperkey/internal/audio"
)

// DebugConfig enables per-cycle artifacts. Dir defaults to state/whisperkey/debug.
type DebugConfig struct {
	AudioDump bool
	Dir       string
}

// dumpAudio writes the processed buffer when debug.audio_dump is enabled.
func (o *Orchestrator) dumpAudio(sessionID string, buf audio.Buffer) {
	if !o.debug.AudioDump || buf.Len() == 0 {
		return
	}

	path, err := debugPath(o.debug.Dir, "audio-"+shortID(sessionID), "wav", o.now())
	if err != nil {
		o.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	if err := audio.WriteWAVFile(path, buf); err != nil {
		o.logWarn("unable to write debug audio dump", "path", path, "error", err.Error())
		return
	}
	o.logDebug("debug audio written", "session_id", sessionID, "path", path)
}

// debugPath returns a timestamped artifact path, creating its directory.
func debugPath(dir string, prefix string, extension string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		stateDir, err := resolveStateDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(stateDir, "whisperkey", "debug")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := now.Format("20060102-150405.000")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension)), nil
}

// resolveStateDir returns XDG_STATE_HOME with the ~/.local/state fallback.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
