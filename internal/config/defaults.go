package config

const (
	defaultLibraryDir         = "~/organized"
	defaultDataDir            = "~/.local/share/shelve"
	defaultLogDir             = "~/.local/share/shelve/logs"
	defaultMaxContentSizeKiB  = 64
	defaultFolderListDepth    = 3
	defaultFolderListMaxCount = 100
	defaultConflictStrategy   = "rename"
	defaultConfidence         = 0.7
	defaultChunkSize          = 50
	defaultClassifierBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierModel    = "google/gemini-3-flash-preview"
	defaultClassifierTimeout  = 60
	defaultDebounceMs         = 3000
	defaultSettleMs           = 500
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Scanner: Scanner{
			Recursive:          false,
			MaxDepth:           0,
			ReadContent:        true,
			MaxContentSizeKiB:  defaultMaxContentSizeKiB,
			FolderListDepth:    defaultFolderListDepth,
			FolderListMaxCount: defaultFolderListMaxCount,
		},
		Organizer: Organizer{
			ConflictStrategy:    defaultConflictStrategy,
			BackupOnOverwrite:   true,
			ConfidenceThreshold: defaultConfidence,
			ChunkSize:           defaultChunkSize,
		},
		Classifier: Classifier{
			BaseURL:        defaultClassifierBaseURL,
			Model:          defaultClassifierModel,
			TimeoutSeconds: defaultClassifierTimeout,
		},
		Watcher: Watcher{
			DebounceMs: defaultDebounceMs,
			SettleMs:   defaultSettleMs,
		},
		Duplicates: Duplicates{
			CacheEnabled: true,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
