// Package voice holds the voice-model lifecycle: the external cloning
// provider gateway, the state machine that keeps a profile's voice status in
// line with its recorded samples, and message synthesis.
package voice

import (
	"context"

	apperrors "EchoLegacy/pkg/errors"
)

// Sample is one training recording handed to the provider. Name matters:
// providers can be sensitive to sample ordering and naming.
type Sample struct {
	Name string
	Data []byte
}

// Gateway is the external voice-cloning capability. Handles are opaque; the
// application never inspects them.
type Gateway interface {
	// CreateVoice trains a voice from the ordered samples and returns its handle.
	CreateVoice(ctx context.Context, name string, samples []Sample) (string, error)

	// Synthesize renders text in the given voice and returns audio bytes.
	Synthesize(ctx context.Context, text, voiceHandle string) ([]byte, error)

	// DeleteVoice releases the remote voice model.
	DeleteVoice(ctx context.Context, voiceHandle string) error
}

func providerErr(err error, msg string) error {
	return apperrors.WrapCode(apperrors.CodeProviderFailure, err, msg)
}
