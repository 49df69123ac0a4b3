package config

import (
	"errors"
	"fmt"
)

var validStrategies = map[string]struct{}{
	"rename":    {},
	"overwrite": {},
	"skip":      {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	if _, ok := validStrategies[c.Organizer.ConflictStrategy]; !ok {
		return fmt.Errorf("organizer.conflict_strategy must be rename, overwrite, or skip (got %q)", c.Organizer.ConflictStrategy)
	}
	if c.Organizer.ConfidenceThreshold < 0 || c.Organizer.ConfidenceThreshold > 1 {
		return errors.New("organizer.confidence_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
}

// RequireClassifier reports an actionable error when the categorization
// service cannot be reached with the current settings. Commands that never
// call the service (dupes, history, undo) skip this check.
func (c *Config) RequireClassifier() error {
	if c.Classifier.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/shelve/config.toml"
	}
	return fmt.Errorf("classifier.api_key is required; edit %s (create with 'shelve config init')", defaultPath)
}
