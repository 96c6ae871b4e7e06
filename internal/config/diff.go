package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider and
// listen-address changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VoiceChanged is true when the voice name or instructions changed.
	// The new values apply to the next voice session.
	VoiceChanged bool

	// ChatInstructionsChanged is true when the text assistant's system
	// prompt changed. Applies to the next chat exchange after a reset.
	ChatInstructionsChanged bool
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.VoiceChanged || d.ChatInstructionsChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Voice != new.Voice {
		d.VoiceChanged = true
	}
	if old.Venues.ChatInstructions != new.Venues.ChatInstructions {
		d.ChatInstructionsChanged = true
	}

	return d
}
