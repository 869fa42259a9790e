// Package speech provides text-to-speech synthesis, audio playback,
// and the on-device fallback narration.
package speech

// Audio format requested from Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Env var names for Azure Speech credentials. When either is unset the
// app degrades to the no-op synthesizer and announcements use the
// on-device fallback voice.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)
