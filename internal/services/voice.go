package services

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers"
	"github.com/amelia751/cloudly/internal/providers/elevenlabs"
	"github.com/amelia751/cloudly/internal/store"
)

// AllowedAudioExtensions are the sample formats accepted for cloning.
var AllowedAudioExtensions = []string{".wav", ".mp3", ".m4a"}

// VoiceService registers and removes a user's cloned voice.
type VoiceService struct {
	store  store.Store
	voices VoiceProvider
	log    zerolog.Logger
}

func NewVoiceService(s store.Store, vp VoiceProvider, log zerolog.Logger) *VoiceService {
	return &VoiceService{store: s, voices: vp, log: log}
}

// RegisterRequest carries one audio sample to clone.
type RegisterRequest struct {
	UserID      string
	Name        string
	Meta        string
	FileName    string
	ContentType string
	Audio       io.Reader
}

// Register clones the sample at the provider and stores the resulting voice.
// A user holds at most one voice.
func (s *VoiceService) Register(ctx context.Context, req RegisterRequest) (*model.Voice, *elevenlabs.AddedVoice, error) {
	if strings.TrimSpace(req.Name) == "" || req.Audio == nil {
		return nil, nil, model.Invalid("Missing name or audio")
	}
	if !allowedAudio(req.FileName) {
		return nil, nil, model.Invalid("Audio must be .wav, .mp3, or .m4a")
	}
	if _, err := s.store.Voices().GetByUser(ctx, req.UserID); err == nil {
		return nil, nil, model.Conflictf("user already has a registered voice")
	} else if !model.IsNotFound(err) {
		return nil, nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}
	added, err := s.voices.AddVoice(ctx, req.Name, elevenlabs.Sample{
		FileName:    req.FileName,
		ContentType: contentType,
		Data:        req.Audio,
	})
	if err != nil {
		return nil, nil, err
	}

	v, err := s.store.Voices().Create(ctx, &model.Voice{
		UserID:  req.UserID,
		VoiceID: added.VoiceID,
		Name:    req.Name,
		Meta:    req.Meta,
	})
	if err != nil {
		msg := "voice cloned at provider but local write failed"
		if model.IsConflict(err) {
			// A concurrent registration won the unique user slot.
			msg = "voice cloned at provider but user already has one; remote voice orphaned"
		}
		s.log.Error().Stack().Err(errors.WithStack(err)).
			Str("userId", req.UserID).
			Str("voiceId", added.VoiceID).
			Msg(msg)
		return nil, nil, err
	}
	return v, added, nil
}

// Get returns the caller's voice.
func (s *VoiceService) Get(ctx context.Context, userID string) (*model.Voice, error) {
	return s.store.Voices().GetByUser(ctx, userID)
}

// Delete removes the voice at the provider first; the local record is removed
// only after the provider confirms. A provider 404 counts as confirmed so a
// retry after a failed local delete can finish.
func (s *VoiceService) Delete(ctx context.Context, userID, voiceID string) error {
	if strings.TrimSpace(voiceID) == "" {
		return model.Invalid("Missing voiceId")
	}
	v, err := s.store.Voices().GetByVoiceID(ctx, voiceID)
	if err != nil {
		return err
	}
	if v.UserID != userID {
		return model.Forbiddenf("voice %s belongs to another user", voiceID)
	}
	if _, err := s.voices.DeleteVoice(ctx, voiceID); err != nil {
		pe, ok := providers.AsError(err)
		if !ok || pe.Status != http.StatusNotFound {
			return err
		}
		s.log.Warn().Str("voiceId", voiceID).Msg("voice already gone at provider")
	}
	if err := s.store.Voices().Delete(ctx, v.ID); err != nil {
		s.log.Error().Stack().Err(errors.WithStack(err)).
			Str("voiceId", voiceID).
			Msg("voice deleted at provider but local delete failed")
		return errors.Wrap(err, "delete local voice")
	}
	return nil
}

func allowedAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedAudioExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
