package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const baseURL = "https://api.openai.com/v1"

// Client is the OpenAI-backed voice provider: Whisper for recognition and
// the TTS endpoint for synthesis.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at an alternate host. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// isoLanguage maps BCP-47 codes from the voice config to the ISO-639-1
// codes Whisper accepts.
func isoLanguage(language string) string {
	lower := strings.ToLower(language)
	if strings.HasPrefix(lower, "cmn") || strings.HasPrefix(lower, "zh") {
		return "zh"
	}
	return "en"
}

// Transcribe uploads LINEAR16 audio as a WAV file to /audio/transcriptions.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(wrapWAV(audio)); err != nil {
		return "", fmt.Errorf("write audio part: %w", err)
	}
	if err := mw.WriteField("model", "whisper-1"); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("language", isoLanguage(language)); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// Synthesize renders text to MP3 via /audio/speech.
func (c *Client) Synthesize(ctx context.Context, text, language, voiceName string) ([]byte, error) {
	if voiceName == "" {
		voiceName = "alloy"
	}
	payload, err := json.Marshal(map[string]string{
		"model": "tts-1",
		"input": text,
		"voice": voiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openai audio api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai audio api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// wrapWAV frames raw 16 kHz mono LINEAR16 samples in a minimal WAV header
// so Whisper recognizes the upload as audio.
func wrapWAV(pcm []byte) []byte {
	const (
		sampleRate = 16000
		channels   = 1
		bits       = 16
	)
	byteRate := sampleRate * channels * bits / 8
	blockAlign := channels * bits / 8

	buf := make([]byte, 0, 44+len(pcm))
	w := bytes.NewBuffer(buf)
	w.WriteString("RIFF")
	writeUint32(w, uint32(36+len(pcm)))
	w.WriteString("WAVE")
	w.WriteString("fmt ")
	writeUint32(w, 16)
	writeUint16(w, 1)
	writeUint16(w, channels)
	writeUint32(w, sampleRate)
	writeUint32(w, uint32(byteRate))
	writeUint16(w, uint16(blockAlign))
	writeUint16(w, bits)
	w.WriteString("data")
	writeUint32(w, uint32(len(pcm)))
	w.Write(pcm)
	return w.Bytes()
}

func writeUint32(w *bytes.Buffer, v uint32) {
	w.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeUint16(w *bytes.Buffer, v uint16) {
	w.Write([]byte{byte(v), byte(v >> 8)})
}
