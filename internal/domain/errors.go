package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrAnnouncementInFlight = errors.New("an announcement is already in flight")
	ErrSynthUnavailable     = errors.New("speech synthesis is not available")
	ErrEmptyAudio           = errors.New("synthesis returned no audio")
	ErrInvalidVoice         = errors.New("voice is not in the supported set")
	ErrNoSnapshot           = errors.New("no local snapshot exists")
)
