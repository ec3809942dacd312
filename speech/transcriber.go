// Package speech turns a local audio recording into text through an
// external cloud recognition endpoint. Transcribe is the only seam: every
// failure mode comes back as a Result, never as an error or panic.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaxAudioBytes is the largest recording sent inline. Bigger files need a
// shorter recording or a bucket-based upload path, so the guard fires before
// any read or encode work.
const MaxAudioBytes = 10 * 1024 * 1024

// DefaultEndpoint is the cloud speech recognition endpoint.
const DefaultEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

const (
	defaultLanguage   = "ko-KR"
	defaultSampleRate = 16000
	audioEncoding     = "LINEAR16"
	requestTimeout    = 30 * time.Second
)

// Result is a closed, mutually exclusive outcome: Success implies Text is
// set and Error empty, and vice versa.
type Result struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Transcriber calls the recognition endpoint with fixed decoding parameters
// matching the recording format.
type Transcriber struct {
	apiKey     string
	endpoint   string
	language   string
	sampleRate int
	httpClient *http.Client
	log        zerolog.Logger
}

// TranscriberOption configures a Transcriber.
type TranscriberOption func(*Transcriber)

// WithEndpoint overrides the recognition endpoint.
func WithEndpoint(endpoint string) TranscriberOption {
	return func(t *Transcriber) {
		t.endpoint = endpoint
	}
}

// WithLanguage sets the recognition language hint.
func WithLanguage(language string) TranscriberOption {
	return func(t *Transcriber) {
		t.language = language
	}
}

// WithSampleRate sets the decode sample rate; it must match the rate the
// recordings are actually made with.
func WithSampleRate(sampleRate int) TranscriberOption {
	return func(t *Transcriber) {
		t.sampleRate = sampleRate
	}
}

// WithHTTPClient replaces the transport (primarily for testing).
func WithHTTPClient(httpClient *http.Client) TranscriberOption {
	return func(t *Transcriber) {
		t.httpClient = httpClient
	}
}

// WithLogger sets the transcriber logger.
func WithLogger(log zerolog.Logger) TranscriberOption {
	return func(t *Transcriber) {
		t.log = log
	}
}

// NewTranscriber creates a Transcriber. An empty apiKey is allowed here and
// reported per call, so a missing credential degrades the feature instead of
// the whole client.
func NewTranscriber(apiKey string, options ...TranscriberOption) *Transcriber {
	t := &Transcriber{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(t)
	}

	return t
}

type recognitionRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	AudioChannelCount          int    `json:"audioChannelCount"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognitionResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe reads the audio file at path, ships it base64-encoded to the
// recognition endpoint, and joins the recognized fragments into one string.
func (t *Transcriber) Transcribe(ctx context.Context, path string) Result {
	if t.apiKey == "" {
		return failure("speech API key is not configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure(fmt.Sprintf("audio file: %v", err))
	}
	if info.Size() > MaxAudioBytes {
		return failure(fmt.Sprintf(
			"audio file is %d bytes, over the %d byte inline limit; use a shorter recording or a bucket upload",
			info.Size(), MaxAudioBytes,
		))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("read audio file: %v", err))
	}

	payload, err := json.Marshal(recognitionRequest{
		Config: recognitionConfig{
			Encoding:                   audioEncoding,
			SampleRateHertz:            t.sampleRate,
			LanguageCode:               t.language,
			AudioChannelCount:          1,
			EnableAutomaticPunctuation: true,
		},
		Audio: recognitionAudio{Content: base64.StdEncoding.EncodeToString(raw)},
	})
	if err != nil {
		return failure(fmt.Sprintf("encode recognition request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.requestURL(), bytes.NewReader(payload))
	if err != nil {
		return failure(fmt.Sprintf("build recognition request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return failure(fmt.Sprintf("recognition call: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("read recognition response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.log.Error().Int("status", resp.StatusCode).Msg("recognition call failed")
		return failure(fmt.Sprintf("recognition call failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	parsed := recognitionResponse{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failure(fmt.Sprintf("decode recognition response: %v", err))
	}

	transcript := joinTranscripts(parsed)
	if transcript == "" {
		return failure("speech was not recognized, try again")
	}

	return Result{Success: true, Text: transcript}
}

// joinTranscripts concatenates the first alternative of every recognized
// segment, in response order, space-joined.
func joinTranscripts(resp recognitionResponse) string {
	fragments := make([]string, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if transcript := result.Alternatives[0].Transcript; transcript != "" {
			fragments = append(fragments, transcript)
		}
	}
	return strings.TrimSpace(strings.Join(fragments, " "))
}

func (t *Transcriber) requestURL() string {
	return t.endpoint + "?key=" + url.QueryEscape(t.apiKey)
}

func failure(message string) Result {
	return Result{Success: false, Error: message}
}
