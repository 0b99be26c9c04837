package voice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// StubGateway is a deterministic in-process provider for development and CI.
// Handles are derived from the sample set; synthesis returns silent PCM
// proportional to the text length (320 bytes ≈ 10 ms at 16 kHz mono PCM16).
type StubGateway struct {
	log *zap.Logger
}

func NewStubGateway(log *zap.Logger) *StubGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubGateway{log: log}
}

func (s *StubGateway) CreateVoice(_ context.Context, name string, samples []Sample) (string, error) {
	if len(samples) == 0 {
		return "", providerErr(fmt.Errorf("no samples"), "create voice needs samples")
	}
	h := sha256.New()
	h.Write([]byte(name))
	for _, smp := range samples {
		h.Write([]byte(smp.Name))
		h.Write(smp.Data)
	}
	handle := "stub-" + hex.EncodeToString(h.Sum(nil))[:16]
	s.log.Info("stub voice created",
		zap.String("name", name),
		zap.Int("samples", len(samples)),
		zap.String("handle", handle),
	)
	return handle, nil
}

func (s *StubGateway) Synthesize(_ context.Context, text, voiceHandle string) ([]byte, error) {
	if voiceHandle == "" {
		return nil, providerErr(fmt.Errorf("empty handle"), "synthesize needs a voice handle")
	}
	if text == "" {
		return nil, providerErr(fmt.Errorf("empty text"), "synthesize needs text")
	}
	return make([]byte, len(text)*320), nil
}

func (s *StubGateway) DeleteVoice(_ context.Context, voiceHandle string) error {
	s.log.Info("stub voice deleted", zap.String("handle", voiceHandle))
	return nil
}
