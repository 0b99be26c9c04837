package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"EchoLegacy/pkg/metrics"
)

const defaultProviderTimeout = 60 * time.Second

// ElevenLabsConfig parameterizes the hosted provider. Timeout bounds every
// call; a timed-out call counts as a provider failure.
type ElevenLabsConfig struct {
	BaseURL string
	APIKey  string
	ModelID string
	Timeout time.Duration
}

// ElevenLabsGateway talks to the ElevenLabs voice API over HTTPS.
type ElevenLabsGateway struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

func NewElevenLabsGateway(cfg ElevenLabsConfig) *ElevenLabsGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProviderTimeout
	}
	return &ElevenLabsGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *ElevenLabsGateway) CreateVoice(ctx context.Context, name string, samples []Sample) (string, error) {
	start := time.Now()
	handle, err := g.createVoice(ctx, name, samples)
	metrics.ObserveProviderCall("create_voice", start, err)
	return handle, err
}

func (g *ElevenLabsGateway) createVoice(ctx context.Context, name string, samples []Sample) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("name", name); err != nil {
		return "", providerErr(err, "build create voice request")
	}
	for _, s := range samples {
		part, err := w.CreateFormFile("files", s.Name)
		if err != nil {
			return "", providerErr(err, "build create voice request")
		}
		if _, err := part.Write(s.Data); err != nil {
			return "", providerErr(err, "build create voice request")
		}
	}
	if err := w.Close(); err != nil {
		return "", providerErr(err, "build create voice request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/voices/add", &body)
	if err != nil {
		return "", providerErr(err, "build create voice request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", providerErr(err, "create voice call failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", providerErr(fmt.Errorf("status %d", resp.StatusCode), "create voice rejected")
	}

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", providerErr(err, "decode create voice response")
	}
	if out.VoiceID == "" {
		return "", providerErr(fmt.Errorf("empty voice_id"), "create voice response missing handle")
	}
	return out.VoiceID, nil
}

func (g *ElevenLabsGateway) Synthesize(ctx context.Context, text, voiceHandle string) ([]byte, error) {
	start := time.Now()
	audio, err := g.synthesize(ctx, text, voiceHandle)
	metrics.ObserveProviderCall("synthesize", start, err)
	return audio, err
}

func (g *ElevenLabsGateway) synthesize(ctx context.Context, text, voiceHandle string) ([]byte, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"text":     text,
		"model_id": g.cfg.ModelID,
	})
	if err != nil {
		return nil, providerErr(err, "build synthesis request")
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", g.cfg.BaseURL, voiceHandle)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, providerErr(err, "build synthesis request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, providerErr(err, "synthesis call failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, providerErr(fmt.Errorf("status %d", resp.StatusCode), "synthesis rejected")
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providerErr(err, "read synthesis response")
	}
	return audio, nil
}

func (g *ElevenLabsGateway) DeleteVoice(ctx context.Context, voiceHandle string) error {
	start := time.Now()
	err := g.deleteVoice(ctx, voiceHandle)
	metrics.ObserveProviderCall("delete_voice", start, err)
	return err
}

func (g *ElevenLabsGateway) deleteVoice(ctx context.Context, voiceHandle string) error {
	url := fmt.Sprintf("%s/v1/voices/%s", g.cfg.BaseURL, voiceHandle)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return providerErr(err, "build delete voice request")
	}
	req.Header.Set("xi-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return providerErr(err, "delete voice call failed")
	}
	defer resp.Body.Close()
	// A voice the provider no longer knows about is already deleted.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return providerErr(fmt.Errorf("status %d", resp.StatusCode), "delete voice rejected")
	}
	return nil
}
