package voice

import (
	"context"
	"strings"

	"EchoLegacy/internal/models"
	apperrors "EchoLegacy/pkg/errors"

	"go.uber.org/zap"
)

// MaxMessageLength bounds the text accepted for synthesis, in characters.
const MaxMessageLength = 2000

// Speech duration heuristic. Not measured from the audio; the estimate must
// stay stable because it is stored with the message.
const (
	charsPerWord       = 5
	wordsPerMinute     = 150
	minDurationSeconds = 5
)

// EstimateDuration returns the estimated playback seconds for text:
// floor(words / wordsPerMinute * 60) with a floor of minDurationSeconds,
// where words = len(text) / charsPerWord.
func EstimateDuration(text string) int {
	words := len(text) / charsPerWord
	seconds := words * 60 / wordsPerMinute
	if seconds < minDurationSeconds {
		return minDurationSeconds
	}
	return seconds
}

// Synthesizer renders message text in a profile's cloned voice.
type Synthesizer struct {
	gw  Gateway
	log *zap.Logger
}

func NewSynthesizer(gw Gateway, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{gw: gw, log: log}
}

// Synthesize checks preconditions, calls the provider, and returns audio plus
// the duration estimate. Unlike lifecycle cleanup, provider failure here is
// surfaced: message creation is the user's explicit action.
func (s *Synthesizer) Synthesize(ctx context.Context, profile *models.Profile, text string) ([]byte, int, error) {
	if profile.VoiceModelStatus != models.VoiceStatusReady || profile.VoiceHandle == nil {
		return nil, 0, apperrors.WithCode(apperrors.CodeVoiceNotReady,
			"voice model is not ready for this profile")
	}
	if strings.TrimSpace(text) == "" {
		return nil, 0, apperrors.WithCode(apperrors.CodeEmptyContent, "message text is empty")
	}
	if len(text) > MaxMessageLength {
		return nil, 0, apperrors.WithCodef(apperrors.CodeContentTooLong,
			"message text exceeds %d characters", MaxMessageLength)
	}

	audio, err := s.gw.Synthesize(ctx, text, *profile.VoiceHandle)
	if err != nil {
		s.log.Warn("synthesis failed",
			zap.String("profile", profile.ID), zap.Error(err))
		return nil, 0, apperrors.WrapCode(apperrors.CodeSynthesisFailed, err, "speech synthesis failed")
	}
	return audio, EstimateDuration(text), nil
}
