package config

import "strings"

// normalize expands path fields, trims string values, and backfills defaults
// for zero values so downstream code never re-checks them.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LibraryDir, err = ExpandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return err
	}
	if c.Paths.DataDir, err = ExpandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	for i, path := range c.Watcher.Paths {
		expanded, err := ExpandPath(strings.TrimSpace(path))
		if err != nil {
			return err
		}
		c.Watcher.Paths[i] = expanded
	}

	c.Organizer.ConflictStrategy = strings.ToLower(strings.TrimSpace(c.Organizer.ConflictStrategy))
	if c.Organizer.ConflictStrategy == "" {
		c.Organizer.ConflictStrategy = defaultConflictStrategy
	}
	if c.Organizer.ChunkSize <= 0 {
		c.Organizer.ChunkSize = defaultChunkSize
	}

	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}

	if c.Scanner.MaxContentSizeKiB <= 0 {
		c.Scanner.MaxContentSizeKiB = defaultMaxContentSizeKiB
	}
	if c.Scanner.FolderListDepth <= 0 {
		c.Scanner.FolderListDepth = defaultFolderListDepth
	}
	if c.Scanner.FolderListMaxCount <= 0 {
		c.Scanner.FolderListMaxCount = defaultFolderListMaxCount
	}

	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = defaultDebounceMs
	}
	if c.Watcher.SettleMs <= 0 {
		c.Watcher.SettleMs = defaultSettleMs
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
