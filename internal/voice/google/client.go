package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	speechBaseURL = "https://speech.googleapis.com/v1"
	ttsBaseURL    = "https://texttospeech.googleapis.com/v1"

	oauthScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Client talks to Google Cloud Speech-to-Text and Text-to-Speech over REST
// using service-account credentials.
type Client struct {
	httpClient  *http.Client
	speechBase  string
	ttsBase     string
	tokenSource oauth2.TokenSource
}

// NewClient builds a voice provider from service-account JSON.
func NewClient(ctx context.Context, credentialsJSON []byte, timeout time.Duration) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, oauthScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		speechBase:  speechBaseURL,
		ttsBase:     ttsBaseURL,
		tokenSource: creds.TokenSource,
	}, nil
}

// WithBaseURLs points both APIs at alternate hosts. Used by tests.
func (c *Client) WithBaseURLs(speech, tts string) *Client {
	c.speechBase = strings.TrimRight(speech, "/")
	c.ttsBase = strings.TrimRight(tts, "/")
	return c
}

type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	Audio  recognizeAudio  `json:"audio"`
}

type recognizeConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe sends 16 kHz LINEAR16 audio to speech:recognize. An empty
// result set is not an error: it means nothing recognizable was said.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	reqBody := recognizeRequest{
		Config: recognizeConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            16000,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: recognizeAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	}

	var resp recognizeResponse
	if err := c.doJSON(ctx, c.speechBase+"/speech:recognize", reqBody, &resp); err != nil {
		return "", err
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	return strings.Join(parts, " "), nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize renders text to MP3 via text:synthesize.
func (c *Client) Synthesize(ctx context.Context, text, language, voiceName string) ([]byte, error) {
	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = language
	reqBody.Voice.Name = voiceName
	reqBody.AudioConfig.AudioEncoding = "MP3"

	var resp synthesizeResponse
	if err := c.doJSON(ctx, c.ttsBase+"/text:synthesize", reqBody, &resp); err != nil {
		return nil, err
	}
	out, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode synthesized audio: %w", err)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokenSource != nil {
		tok, err := c.tokenSource.Token()
		if err != nil {
			return fmt.Errorf("google oauth token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call google api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read google response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode google response: %w", err)
	}
	return nil
}
