// Package whisper transcribes audio through an OpenAI-compatible speech-to-text endpoint.
package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/transcript"
)

// ErrUnknownModelSize is returned by LoadModel for unsupported sizes.
var ErrUnknownModelSize = errors.New("unknown model size")

var modelSizes = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "turbo"}

// Config controls the transcription endpoint and decoding parameters.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	ModelSize   string
	Device      string
	Language    string
	Temperature float64
	BeamSize    int
	BestOf      int
	Prompt      string
	Timeout     time.Duration
	TempDir     string
}

// Client implements the transcriber contract against /v1/audio/transcriptions.
type Client struct {
	cfg    Config
	api    openai.Client
	logger *slog.Logger

	mu        sync.RWMutex
	modelSize string
	model     string
	device    string
}

// New builds a Client. Extra request options are appended after the configured ones.
func New(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKeyOrPlaceholder(cfg.APIKey)),
		option.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		option.WithMaxRetries(1),
	}
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		base = append(base, option.WithBaseURL(u))
	}

	c := &Client{
		cfg:    cfg,
		api:    openai.NewClient(append(base, opts...)...),
		logger: logger,
	}
	size := cfg.ModelSize
	if size == "" {
		size = "base"
	}
	c.modelSize = size
	c.model = resolveModel(cfg.Model, size, cfg.BaseURL)
	c.device = cfg.Device
	return c
}

// LoadModel selects the model size used for subsequent requests.
func (c *Client) LoadModel(_ context.Context, size string, device string) error {
	size = strings.ToLower(strings.TrimSpace(size))
	if !validModelSize(size) {
		return fmt.Errorf("%w %q (want one of %s)", ErrUnknownModelSize, size, strings.Join(modelSizes, ", "))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.modelSize = size
	c.model = resolveModel(c.cfg.Model, size, c.cfg.BaseURL)
	if strings.TrimSpace(device) != "" {
		c.device = device
	}
	logInfo(c.logger, "transcription model selected", "model_size", size, "model", c.model, "device", c.device)
	return nil
}

// ModelSize returns the active model size.
func (c *Client) ModelSize() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelSize
}

// Warmup transcribes one second of silence so the server loads its model.
func (c *Client) Warmup(ctx context.Context) error {
	rate := 16000
	silence, err := audio.NewBuffer(make([]float32, rate), rate, 1)
	if err != nil {
		return err
	}
	started := time.Now()
	if _, err := c.Transcribe(ctx, silence, c.cfg.Language); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	logInfo(c.logger, "transcription warmup complete", "elapsed_ms", time.Since(started).Milliseconds())
	return nil
}

// Transcribe encodes buf to a temporary WAV and posts it for recognition.
// The temporary file is removed on every path.
func (c *Client) Transcribe(ctx context.Context, buf audio.Buffer, language string) (transcript.Transcription, error) {
	c.mu.RLock()
	modelSize, model := c.modelSize, c.model
	c.mu.RUnlock()

	path := filepath.Join(c.tempDir(), "whisperkey-"+uuid.NewString()+".wav")
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logWarn(c.logger, "remove temp wav failed", "path", path, "error", err.Error())
		}
	}()

	if err := audio.WriteWAVFile(path, buf); err != nil {
		return transcript.Transcription{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return transcript.Transcription{}, fmt.Errorf("open temp wav: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(f, filepath.Base(path), "audio/wav"),
		Model:          openai.AudioModel(model),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
		Temperature:    openai.Float(c.cfg.Temperature),
	}
	if lang := strings.TrimSpace(language); lang != "" && lang != "auto" {
		params.Language = openai.String(lang)
	}
	if p := strings.TrimSpace(c.cfg.Prompt); p != "" {
		params.Prompt = openai.String(p)
	}
	if extras := c.decodingFields(); len(extras) > 0 {
		params.SetExtraFields(extras)
	}

	started := time.Now()
	resp, err := c.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return transcript.Transcription{}, fmt.Errorf("transcription request: %w", err)
	}

	segments := parseSegments(resp.RawJSON())
	out := transcript.New(segments.Text(resp.Text), buf.Duration(), modelSize).WithSourceRMS(buf.RMS())
	if confidence, ok := segments.Confidence(); ok {
		out = out.WithConfidence(confidence)
	}
	logDebug(c.logger, "transcription response",
		"model", model,
		"latency_ms", time.Since(started).Milliseconds(),
		"chars", len(out.Text),
	)
	return out, nil
}

// Ping lists models to confirm the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Models.List(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// decodingFields passes beam search settings through as extra form fields;
// servers that do not know them ignore them.
func (c *Client) decodingFields() map[string]any {
	extras := map[string]any{}
	if c.cfg.BeamSize > 0 {
		extras["beam_size"] = strconv.Itoa(c.cfg.BeamSize)
	}
	if c.cfg.BestOf > 0 {
		extras["best_of"] = strconv.Itoa(c.cfg.BestOf)
	}
	return extras
}

func (c *Client) tempDir() string {
	if dir := strings.TrimSpace(c.cfg.TempDir); dir != "" {
		return dir
	}
	return os.TempDir()
}

type verboseResponse struct {
	Segments transcript.Segments `json:"segments"`
}

// parseSegments reads the segment list from a verbose_json body.
func parseSegments(raw string) transcript.Segments {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var body verboseResponse
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil
	}
	return body.Segments
}

func validModelSize(size string) bool {
	for _, s := range modelSizes {
		if s == size {
			return true
		}
	}
	return false
}

// resolveModel picks the request model name: an explicit model wins, the hosted
// OpenAI API only serves whisper-1, and local servers take the size name.
func resolveModel(explicit string, size string, baseURL string) string {
	if m := strings.TrimSpace(explicit); m != "" {
		return strings.ReplaceAll(m, "{size}", size)
	}
	if baseURL == "" || strings.Contains(baseURL, "api.openai.com") {
		return openai.AudioModelWhisper1
	}
	return size
}

// apiKeyOrPlaceholder keeps the SDK from rejecting keyless local servers.
func apiKeyOrPlaceholder(key string) string {
	if strings.TrimSpace(key) == "" {
		return "whisperkey-local"
	}
	return key
}

func logInfo(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func logWarn(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// newHTTPClient bounds each request by timeout. A non-positive timeout waits indefinitely.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: max(timeout, 0)}
}
