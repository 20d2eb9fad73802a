package config

const (
	defaultCachePath          = "~/.cache/swimsync/library.db"
	defaultSessionPath        = "~/.local/share/swimsync/session.json"
	defaultArchiveDir         = "~/.local/share/swimsync/archives"
	defaultLogDir             = "~/.local/share/swimsync/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCapacityMB         = 4000
	defaultFormatPreference   = "aac"
	defaultCopyTimeoutSeconds = 120
)

func defaultExtensions() []string {
	return []string{".mp3", ".m4a", ".aac"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Device: Device{
			CapacityMB: defaultCapacityMB,
		},
		Library: Library{
			FormatPreference: defaultFormatPreference,
			Extensions:       defaultExtensions(),
			CachePath:        defaultCachePath,
		},
		Playlist: Playlist{
			SessionPath: defaultSessionPath,
		},
		Archive: Archive{
			Dir: defaultArchiveDir,
		},
		Transfer: Transfer{
			CopyTimeoutSeconds: defaultCopyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			LogDir: defaultLogDir,
		},
	}
}
