package domain

// Voices recognised by the synthesis provider. The set is closed: the
// settings layer rejects anything else.
var Voices = []string{
	"id-ID-ArdiNeural",
	"id-ID-GadisNeural",
	"en-US-AvaNeural",
	"en-US-AndrewNeural",
	"en-GB-SoniaNeural",
}

// DefaultVoice is used when no voice has been configured yet.
const DefaultVoice = "id-ID-ArdiNeural"

// IsValidVoice reports whether name is in the closed voice set.
func IsValidVoice(name string) bool {
	for _, v := range Voices {
		if v == name {
			return true
		}
	}
	return false
}

// Settings is the singleton application configuration: the school name
// spoken in the announcement greeting, the auto-trigger master switch,
// and the announcement voice.
type Settings struct {
	SchoolName         string `json:"school_name"`
	AutoTriggerEnabled bool   `json:"auto_trigger_enabled"`
	VoiceName          string `json:"voice_name"`
}

// DefaultSettings returns the settings seeded on first run.
func DefaultSettings() Settings {
	return Settings{
		SchoolName:         "SMA Harapan Bangsa",
		AutoTriggerEnabled: true,
		VoiceName:          DefaultVoice,
	}
}
